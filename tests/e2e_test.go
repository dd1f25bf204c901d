package tests

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dlemos/amekit/internal/config"
	"github.com/dlemos/amekit/internal/daemon"
	"github.com/dlemos/amekit/internal/solver"
	"github.com/dlemos/amekit/internal/watcher"
)

func writeSystemFixture(t *testing.T, dir, sysname string, titles []string, rows [][]float64) string {
	t.Helper()

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(len(rows)))
	binary.Write(&buf, binary.LittleEndian, int32(len(titles)))
	for _, row := range rows {
		binary.Write(&buf, binary.LittleEndian, row)
	}
	if err := os.WriteFile(filepath.Join(dir, sysname+"_.results"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	var vars bytes.Buffer
	for _, title := range titles {
		vars.WriteString(title + "\n")
	}
	if err := os.WriteFile(filepath.Join(dir, sysname+"_.var"), vars.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	sim := "0 10 0.01 1e+30 1e-07 0.001 1 0.1\n0 0 0 0 8 0 0 0 0 0\n"
	if err := os.WriteFile(filepath.Join(dir, sysname+"_.sim"), []byte(sim), 0644); err != nil {
		t.Fatal(err)
	}

	return filepath.Join(dir, sysname+".ame")
}

func startTestDaemon(t *testing.T, dir string) *daemon.Client {
	t.Helper()

	cfg := &config.Config{
		SocketPath:     filepath.Join(dir, "daemon.sock"),
		DatabasePath:   filepath.Join(dir, "index.db"),
		LogLevel:       "error",
		MaxConnections: 10,
		Index: config.IndexConfig{
			Enabled:      true,
			DBPath:       filepath.Join(dir, "index.db"),
			MaxFileSize:  16 * 1024 * 1024,
			MaxQueueSize: 64,
			WorkerCount:  1,
			RateLimit:    100,
		},
		Solver:  solver.DefaultManagerConfig(),
		Watcher: watcher.WatcherConfig{Enabled: false},
	}

	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	go d.Start()
	t.Cleanup(d.Shutdown)

	connector := daemon.NewSocketConnector(cfg.SocketPath)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := connector.Connect()
		if err == nil {
			client := daemon.NewClient(conn)
			t.Cleanup(func() { client.Close() })
			return client
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("daemon socket never became ready")
	return nil
}

func call(t *testing.T, client *daemon.Client, name string, args map[string]interface{}) string {
	t.Helper()

	result, err := client.Call("tools/call", map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("%s: unexpected result type %T", name, result)
	}
	content, ok := resultMap["content"].([]interface{})
	if !ok || len(content) == 0 {
		t.Fatalf("%s: missing content", name)
	}
	block, ok := content[0].(map[string]interface{})
	if !ok {
		t.Fatalf("%s: unexpected content block %T", name, content[0])
	}
	text, _ := block["text"].(string)
	return text
}

func TestDaemonE2E(t *testing.T) {
	tmpDir := t.TempDir()
	ref := writeSystemFixture(t, tmpDir, "pump",
		[]string{"pump_flow [L/min]", "pressure [bar]"},
		[][]float64{{0, 1, 10}, {0.1, 2, 11}, {0.2, 3, 12}})

	client := startTestDaemon(t, tmpDir)

	t.Run("Initialize", func(t *testing.T) {
		result, err := client.Call("initialize", map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"clientInfo":      map[string]interface{}{"name": "e2e", "version": "0"},
		})
		if err != nil {
			t.Fatalf("initialize failed: %v", err)
		}
		serverInfo := result.(map[string]interface{})["serverInfo"].(map[string]interface{})
		if serverInfo["name"] != "amekit" {
			t.Errorf("serverInfo.name = %v, want amekit", serverInfo["name"])
		}
	})

	t.Run("ListTools", func(t *testing.T) {
		result, err := client.Call("tools/list", nil)
		if err != nil {
			t.Fatalf("tools/list failed: %v", err)
		}
		toolsList := result.(map[string]interface{})["tools"].([]interface{})
		wantCount := 14
		if len(toolsList) != wantCount {
			t.Errorf("got %d tools, want %d", len(toolsList), wantCount)
		}
	})

	t.Run("ResultsLoad", func(t *testing.T) {
		text := call(t, client, "results_load", map[string]interface{}{
			"system": ref,
		})
		if !strings.Contains(text, "pressure [bar]") {
			t.Errorf("results_load output missing pressure variable: %s", text)
		}
		if !strings.Contains(text, `"points":3`) {
			t.Errorf("results_load output missing point count: %s", text)
		}
	})

	t.Run("SimoptGet", func(t *testing.T) {
		text := call(t, client, "simopt_get", map[string]interface{}{
			"system": ref,
		})
		if !strings.Contains(text, `"version":4`) {
			t.Errorf("simopt_get output missing version: %s", text)
		}
	})

	t.Run("RainflowCount", func(t *testing.T) {
		text := call(t, client, "rainflow_count", map[string]interface{}{
			"series": []float64{0, -2, 1, -3, 5, -1, 3, -4, 4, -2, 0},
		})
		if !strings.Contains(text, `"half_cycles":8`) {
			t.Errorf("rainflow_count output unexpected: %s", text)
		}
	})

	t.Run("PlotExport", func(t *testing.T) {
		outPath := filepath.Join(tmpDir, "pump.plt")
		call(t, client, "plot_export", map[string]interface{}{
			"system":  ref,
			"pattern": "pressure*",
			"output":  outPath,
		})
		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("plot file not written: %v", err)
		}
		if !strings.HasPrefix(string(data), "# AMESim plot file format version: 2") {
			t.Errorf("plot file header wrong: %q", string(data[:40]))
		}
	})

	t.Run("IndexStatus", func(t *testing.T) {
		text := call(t, client, "index_status", nil)
		if !strings.Contains(text, "total_files") {
			t.Errorf("index_status output unexpected: %s", text)
		}
	})

	t.Run("UnknownTool", func(t *testing.T) {
		_, err := client.Call("tools/call", map[string]interface{}{
			"name":      "no_such_tool",
			"arguments": map[string]interface{}{},
		})
		if err == nil {
			t.Error("expected error for unknown tool")
		}
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		_, err := client.Call("bogus/method", nil)
		if err == nil || !strings.Contains(err.Error(), "Method not found") {
			t.Errorf("expected method not found error, got %v", err)
		}
	})
}

func TestDaemonConcurrentClients(t *testing.T) {
	tmpDir := t.TempDir()
	writeSystemFixture(t, tmpDir, "motor",
		[]string{"speed [rev/min]"},
		[][]float64{{0, 100}, {0.1, 200}})

	client := startTestDaemon(t, tmpDir)

	connector := daemon.NewSocketConnector(filepath.Join(tmpDir, "daemon.sock"))
	second, err := connector.Connect()
	if err != nil {
		t.Fatalf("second connection failed: %v", err)
	}
	client2 := daemon.NewClient(second)
	defer client2.Close()

	for i, c := range []*daemon.Client{client, client2} {
		result, err := c.Call("ping", nil)
		if err != nil {
			t.Fatalf("client %d ping failed: %v", i, err)
		}
		if _, ok := result.(map[string]interface{}); !ok {
			t.Errorf("client %d ping result = %T", i, result)
		}
	}
}
