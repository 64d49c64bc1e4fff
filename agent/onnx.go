package agent

import (
	"fmt"
	"math"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/cgmoganedi/amo-gym-rayan/env"
)

type ONNXConfig struct {
	ModelPath   string
	LibraryPath string // empty picks the platform default
	InputName   string
	OutputName  string
}

// ONNXPolicy runs an exported actor network. The input is the observation
// as a (1, window, symbols, features) float32 tensor and the output is
// (1, symbols).
type ONNXPolicy struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func defaultLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	}
	return "/usr/lib/libonnxruntime.so"
}

func initializeORT(libPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = defaultLibraryPath()
	}
	ort.SetSharedLibraryPath(libPath)
	return ort.InitializeEnvironment()
}

func NewONNXPolicy(cfg ONNXConfig, obs, act env.Box) (*ONNXPolicy, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx: model path is required")
	}
	if len(obs.Shape) != 3 || len(act.Shape) != 1 {
		return nil, fmt.Errorf("onnx: unexpected space shapes %v -> %v", obs.Shape, act.Shape)
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}

	if err := initializeORT(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inShape := ort.NewShape(1, int64(obs.Shape[0]), int64(obs.Shape[1]), int64(obs.Shape[2]))
	input, err := ort.NewTensor(inShape, make([]float32, obs.Size()))
	if err != nil {
		return nil, fmt.Errorf("onnx: input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(act.Shape[0])))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnx: session %s: %w", cfg.ModelPath, err)
	}

	return &ONNXPolicy{session: session, input: input, output: output}, nil
}

// Act returns the network's action clipped to [-1, 1].
func (p *ONNXPolicy) Act(obs env.Observation) ([]float64, error) {
	data := p.input.GetData()
	if len(obs.Data) != len(data) {
		return nil, fmt.Errorf("onnx: observation has %d values, model wants %d", len(obs.Data), len(data))
	}
	for i, v := range obs.Data {
		data[i] = float32(v)
	}

	if err := p.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	out := p.output.GetData()
	action := make([]float64, len(out))
	for i, v := range out {
		action[i] = math.Max(-1, math.Min(1, float64(v)))
	}
	return action, nil
}

func (p *ONNXPolicy) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
}
