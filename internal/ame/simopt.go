package ame

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Integrator types.
const (
	IntegratorStandard = "standard"
	IntegratorFixed    = "fixed"
)

// Simulation modes.
const (
	ModeStabilizing = "stabilizing"
	ModeDynamic     = "dynamic"
	ModeStabAndDyn  = "stab_and_dyn"
)

// Fixed-step integration methods.
const (
	MethodEuler         = "Euler"
	MethodAdamsBashforth = "Adams-Bashforth"
	MethodRungeKutta    = "Runge-Kutta"
)

// Run-parameter flag bits of the second line of a .sim file.
const (
	flagContinuation    = 1 << 0
	flagUseOldFinal     = 1 << 1
	flagModeStabilizing = 1 << 2
	flagModeDynamic     = 1 << 3
	flagHoldInputs      = 1 << 4
	flagFixedStep       = 1 << 5
	flagRungeKutta      = 1 << 6
	flagDisableOptSolver = 1 << 8
)

// RunOptions mirrors the contents of a "<sys>_.sim" run-options file.
// The file format went through four revisions; the version read is kept so
// a round trip preserves the original layout.
type RunOptions struct {
	StartTime     float64 `json:"start_time"`
	FinalTime     float64 `json:"final_time"`
	PrintInterval float64 `json:"print_interval"`
	MaxTimeStep   float64 `json:"max_time_step"`
	Tolerance     float64 `json:"tolerance"`

	ContinuationRun bool   `json:"continuation_run"`
	UseOldFinal     bool   `json:"use_old_final"`
	MonitorTime     bool   `json:"monitor_time"`
	Statistics      bool   `json:"statistics"`
	IntegratorType  string `json:"integrator_type"`
	SimulationMode  string `json:"simulation_mode"`
	PrintDiscont    bool   `json:"print_discont"`
	HoldInputs      bool   `json:"hold_inputs"`

	StabilDiagnostic bool   `json:"stabil_diagnostic"`
	StabilLock       bool   `json:"stabil_lock"`
	SolverType       string `json:"solver_type"`
	ErrorType        string `json:"error_type"`
	MinimalDiscont   bool   `json:"minimal_discont"`

	DisableOptimizedSolver bool    `json:"disable_optimized_solver"`
	AutoLA                 bool    `json:"auto_la"`
	AutoLAMinInterval      float64 `json:"auto_la_min_interval"`
	ComputeActivity        bool    `json:"compute_activity"`
	ComputePower           bool    `json:"compute_power"`
	ComputeEnergy          bool    `json:"compute_energy"`

	IntegrationMethod string  `json:"integration_method"`
	IntegrationStep   float64 `json:"integration_step"`
	IntegrationOrder  int     `json:"integration_order"`

	version int
}

// DefaultRunOptions returns the options a new model starts with.
func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		StartTime:         0.0,
		FinalTime:         10.0,
		PrintInterval:     0.01,
		MaxTimeStep:       1e30,
		Tolerance:         1e-7,
		MonitorTime:       true,
		IntegratorType:    IntegratorStandard,
		SimulationMode:    ModeDynamic,
		SolverType:        "regular",
		ErrorType:         "mixed",
		AutoLAMinInterval: 0.1,
		IntegrationMethod: MethodEuler,
		IntegrationStep:   0.001,
		IntegrationOrder:  1,
		version:           4,
	}
}

// Version reports the .sim layout revision the options were read from.
func (o *RunOptions) Version() int { return o.version }

// ReadRunOptions reads the run options of a model.
func ReadRunOptions(ref string) (*RunOptions, error) {
	path := SystemFile(ref, "_.sim")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read run options: %w", err)
	}
	defer f.Close()

	opt, err := ParseRunOptions(f)
	if err != nil {
		return nil, fmt.Errorf("read run options: %s: %w", path, err)
	}
	return opt, nil
}

// WriteRunOptions writes the run options of a model, preserving the layout
// revision the options carry.
func WriteRunOptions(ref string, opt *RunOptions) error {
	path := SystemFile(ref, "_.sim")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write run options: %w", err)
	}

	if err := EncodeRunOptions(f, opt); err != nil {
		f.Close()
		return fmt.Errorf("write run options: %s: %w", path, err)
	}
	return f.Close()
}

// ParseRunOptions decodes the two-line .sim format.
func ParseRunOptions(r io.Reader) (*RunOptions, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, fmt.Errorf("missing parameter line")
	}
	paramFields := strings.Fields(scanner.Text())
	if !scanner.Scan() {
		return nil, fmt.Errorf("missing option line")
	}
	optionFields := strings.Fields(scanner.Text())

	params := make([]float64, len(paramFields))
	for i, f := range paramFields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		params[i] = v
	}

	options := make([]int, len(optionFields))
	for i, f := range optionFields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i+1, err)
		}
		options[i] = v
	}

	opt := DefaultRunOptions()

	switch {
	case len(params) == 5 && len(options) == 8:
		opt.version = 1
	case len(params) == 5 && len(options) == 9:
		opt.version = 2
	case len(params) == 7 && len(options) == 9:
		opt.version = 3
	case len(params) == 8 && len(options) == 10:
		opt.version = 4
	default:
		return nil, fmt.Errorf("unrecognized layout: %d parameters, %d options", len(params), len(options))
	}

	opt.StartTime = params[0]
	opt.FinalTime = params[1]
	opt.PrintInterval = params[2]
	opt.MaxTimeStep = params[3]
	opt.Tolerance = params[4]

	switch options[0] {
	case 0:
		opt.ErrorType = "mixed"
	case 1:
		opt.ErrorType = "relative"
	case 2:
		opt.ErrorType = "absolute"
	default:
		return nil, fmt.Errorf("invalid error type %d", options[0])
	}

	switch options[1] {
	case 0:
		opt.MonitorTime = true
	case 2:
		opt.MonitorTime = false
	default:
		return nil, fmt.Errorf("invalid monitor time value %d", options[1])
	}

	switch options[2] {
	case 0:
		opt.PrintDiscont = false
	case 1:
		opt.PrintDiscont = true
	default:
		return nil, fmt.Errorf("invalid discontinuities printout value %d", options[2])
	}

	switch options[3] {
	case 0:
		opt.Statistics = false
	case 1:
		opt.Statistics = true
	default:
		return nil, fmt.Errorf("invalid statistics value %d", options[3])
	}

	runFlags := options[4]
	opt.ContinuationRun = runFlags&flagContinuation != 0
	opt.UseOldFinal = runFlags&flagUseOldFinal != 0

	switch (runFlags >> 2) & 0b11 {
	case 1:
		opt.SimulationMode = ModeStabilizing
	case 2:
		opt.SimulationMode = ModeDynamic
	case 3:
		opt.SimulationMode = ModeStabAndDyn
	default:
		return nil, fmt.Errorf("invalid simulation mode in flags %d", runFlags)
	}

	opt.HoldInputs = runFlags&flagHoldInputs != 0

	if runFlags&flagFixedStep != 0 {
		opt.IntegratorType = IntegratorFixed
	} else {
		opt.IntegratorType = IntegratorStandard
	}

	if runFlags&flagRungeKutta != 0 {
		opt.IntegrationMethod = MethodRungeKutta
	} else if opt.version >= 3 && params[6] == 1 {
		opt.IntegrationMethod = MethodEuler
	} else {
		opt.IntegrationMethod = MethodAdamsBashforth
	}

	opt.DisableOptimizedSolver = runFlags&flagDisableOptSolver != 0

	switch options[5] {
	case 0:
		opt.SolverType = "regular"
	case 1:
		opt.SolverType = "cautious"
	default:
		return nil, fmt.Errorf("invalid solver type %d", options[5])
	}

	switch options[6] {
	case 0, 1, 2, 3:
		opt.StabilDiagnostic = options[6]&0b10 != 0
		opt.StabilLock = options[6]&0b01 != 0
	default:
		return nil, fmt.Errorf("invalid stabilizing run value %d", options[6])
	}

	switch options[7] {
	case 0:
		opt.MinimalDiscont = false
	case 1:
		opt.MinimalDiscont = true
	default:
		return nil, fmt.Errorf("invalid discontinuity handling value %d", options[7])
	}

	if opt.version >= 2 {
		opt.ComputeActivity = options[8]&1 != 0
		opt.ComputePower = options[8]&(1<<1) != 0
		opt.ComputeEnergy = options[8]&(1<<2) != 0
	}

	if opt.version >= 3 {
		opt.IntegrationStep = params[5]
		opt.IntegrationOrder = int(params[6])
	}

	if opt.version >= 4 {
		opt.AutoLAMinInterval = params[7]
		switch options[9] {
		case 0:
			opt.AutoLA = false
		case 1:
			opt.AutoLA = true
		default:
			return nil, fmt.Errorf("invalid automatic linearization value %d", options[9])
		}
	}

	return opt, nil
}

// EncodeRunOptions writes the two-line .sim format. Values are validated
// first so a bad option never produces a half-written file.
func EncodeRunOptions(w io.Writer, opt *RunOptions) error {
	params, options, err := packRunOptions(opt)
	if err != nil {
		return err
	}

	switch opt.version {
	case 1:
		fmt.Fprintf(w, "%g %g %g %g %g\n", params[0], params[1], params[2], params[3], params[4])
		return writeInts(w, options[:8])
	case 2:
		fmt.Fprintf(w, "%g %g %g %g %g\n", params[0], params[1], params[2], params[3], params[4])
		return writeInts(w, options[:9])
	case 3:
		fmt.Fprintf(w, "%g %g %g %g %g %g %d\n",
			params[0], params[1], params[2], params[3], params[4], params[5], int(params[6]))
		return writeInts(w, options[:9])
	case 4:
		// 16 digits keeps double precision while leaving one digit of
		// rounding headroom.
		fmt.Fprintf(w, "%.16g %.16g %.16g %.16g %.16g %.16g %d %.16g\n",
			params[0], params[1], params[2], params[3], params[4], params[5], int(params[6]), params[7])
		return writeInts(w, options[:10])
	default:
		return fmt.Errorf("invalid layout revision %d", opt.version)
	}
}

func writeInts(w io.Writer, vals []int) error {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(parts, " "))
	return err
}

func packRunOptions(opt *RunOptions) ([8]float64, [10]int, error) {
	var params [8]float64
	var options [10]int

	params[0] = opt.StartTime
	params[1] = opt.FinalTime
	params[2] = opt.PrintInterval
	params[3] = opt.MaxTimeStep
	params[4] = opt.Tolerance
	params[5] = opt.IntegrationStep
	params[7] = opt.AutoLAMinInterval

	switch opt.ErrorType {
	case "mixed":
		options[0] = 0
	case "relative":
		options[0] = 1
	case "absolute":
		options[0] = 2
	default:
		return params, options, fmt.Errorf("invalid error type %q", opt.ErrorType)
	}

	if !opt.MonitorTime {
		options[1] = 2
	}
	if opt.PrintDiscont {
		options[2] = 1
	}
	if opt.Statistics {
		options[3] = 1
	}

	runFlags := 0
	if opt.ContinuationRun {
		runFlags |= flagContinuation
	}
	if opt.UseOldFinal {
		runFlags |= flagUseOldFinal
	}

	switch opt.SimulationMode {
	case ModeStabilizing:
		runFlags |= flagModeStabilizing
	case ModeDynamic:
		runFlags |= flagModeDynamic
	case ModeStabAndDyn:
		runFlags |= flagModeStabilizing | flagModeDynamic
	default:
		return params, options, fmt.Errorf("invalid simulation mode %q", opt.SimulationMode)
	}

	if opt.HoldInputs {
		runFlags |= flagHoldInputs
	}

	switch opt.IntegratorType {
	case IntegratorStandard:
	case IntegratorFixed:
		runFlags |= flagFixedStep
	default:
		return params, options, fmt.Errorf("invalid integrator type %q", opt.IntegratorType)
	}

	order := opt.IntegrationOrder
	switch opt.IntegrationMethod {
	case MethodEuler:
		order = 1 // can only be 1
	case MethodAdamsBashforth:
		if order < 2 || order > 4 {
			order = 2
		}
	case MethodRungeKutta:
		runFlags |= flagRungeKutta
		if order < 2 || order > 4 {
			order = 2
		}
	default:
		return params, options, fmt.Errorf("invalid integration method %q", opt.IntegrationMethod)
	}
	params[6] = float64(order)

	// Bit 7 is the batch-run marker, owned by the batch preparation step.
	if opt.DisableOptimizedSolver {
		runFlags |= flagDisableOptSolver
	}
	options[4] = runFlags

	switch opt.SolverType {
	case "regular":
		options[5] = 0
	case "cautious":
		options[5] = 1
	default:
		return params, options, fmt.Errorf("invalid solver type %q", opt.SolverType)
	}

	if opt.StabilDiagnostic {
		options[6] |= 0b10
	}
	if opt.StabilLock {
		options[6] |= 0b01
	}
	if opt.MinimalDiscont {
		options[7] = 1
	}

	if opt.ComputeActivity {
		options[8] |= 1
	}
	if opt.ComputePower {
		options[8] |= 1 << 1
	}
	if opt.ComputeEnergy {
		options[8] |= 1 << 2
	}
	if opt.AutoLA {
		options[9] = 1
	}

	switch {
	case params[2] <= 0:
		return params, options, fmt.Errorf("print interval must be positive")
	case params[3] <= 0:
		return params, options, fmt.Errorf("maximum time step must be positive")
	case params[4] <= 0:
		return params, options, fmt.Errorf("tolerance must be positive")
	case params[5] <= 0:
		return params, options, fmt.Errorf("integration step must be positive")
	case params[7] <= 0:
		return params, options, fmt.Errorf("linearization interval must be positive")
	}

	return params, options, nil
}
