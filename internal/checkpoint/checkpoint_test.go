package checkpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/dagrad/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParam struct {
	name  string
	value float64
	grad  float64
}

func (p *fakeParam) Name() string       { return p.name }
func (p *fakeParam) Value() float64     { return p.value }
func (p *fakeParam) SetValue(v float64) { p.value = v }
func (p *fakeParam) Grad() float64      { return p.grad }

func newParams(values map[string]float64, order ...string) []*fakeParam {
	ps := make([]*fakeParam, len(order))
	for i, name := range order {
		ps[i] = &fakeParam{name: name, value: values[name]}
	}
	return ps
}

func encode(t *testing.T, c *Checkpoint) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c))
	return buf.Bytes()
}

func TestWriteRead_RoundTrip(t *testing.T) {
	ps := newParams(map[string]float64{"w": 1.25, "b": -0.5}, "w", "b")
	for _, p := range ps {
		p.grad = 0.3
	}
	opt := optim.NewAdam(optim.Params(ps), optim.AdamConfig{LR: 0.01})
	opt.Step()

	c := Capture(optim.Params(ps), "adam", opt)
	c.Metadata["graph"] = "line.hcl"

	raw := encode(t, c)
	assert.Equal(t, MagicBytes, string(raw[0:4]))
	assert.Zero(t, (len(raw)-8*(2+5))%HeaderAlignment, "data section must start on an aligned offset")

	got, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, c.Params, got.Params)
	assert.Equal(t, "line.hcl", got.Metadata["graph"])
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Optimizer)
	assert.Equal(t, "adam", got.Optimizer.Name)
	assert.InDelta(t, 0.01, got.Optimizer.LR, 1e-15)
	assert.Equal(t, opt.StateDict(), got.Optimizer.State)
}

func TestWriteRead_WithoutOptimizer(t *testing.T) {
	c := &Checkpoint{Params: []Value{{Name: "p", Value: 3}}}

	raw := encode(t, c)
	got, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Nil(t, got.Optimizer)
	assert.Equal(t, c.Params, got.Params)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dagr")
	ps := newParams(map[string]float64{"p": 1.6}, "p")
	opt := optim.NewSGD(optim.Params(ps), optim.SGDConfig{LR: 0.1})

	require.NoError(t, Save(path, Capture(optim.Params(ps), "sgd", opt)))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Value{{Name: "p", Value: 1.6}}, got.Params)
	assert.Equal(t, "sgd", got.Optimizer.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.dagr"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRead_Errors(t *testing.T) {
	valid := encode(t, &Checkpoint{Params: []Value{{Name: "a", Value: 1}, {Name: "b", Value: 2}}})

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name:    "bad magic",
			mutate:  func(b []byte) []byte { copy(b, "BORN"); return b },
			wantErr: ErrInvalidMagic,
		},
		{
			name:    "unsupported version",
			mutate:  func(b []byte) []byte { b[4] = 9; return b },
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "header too large",
			mutate:  func(b []byte) []byte { b[16+3] = 0xFF; return b },
			wantErr: ErrHeaderTooLarge,
		},
		{
			name:    "flipped data bit",
			mutate:  func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b },
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "data size disagrees with header",
			mutate:  func(b []byte) []byte { b[24] = 8; return b[:len(b)-8] },
			wantErr: ErrCorrupt,
		},
		{
			name:    "optimizer flag without optimizer",
			mutate:  func(b []byte) []byte { b[8] = byte(FlagHasOptimizer); return b },
			wantErr: ErrCorrupt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.mutate(bytes.Clone(valid))
			_, err := Read(bytes.NewReader(raw))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(valid[:len(valid)-4]))
		require.Error(t, err)
	})
}

func TestRestore(t *testing.T) {
	c := &Checkpoint{Params: []Value{{Name: "w", Value: 2}, {Name: "b", Value: 1}}}

	ps := newParams(nil, "b", "w")
	require.NoError(t, c.Restore(optim.Params(ps)))
	assert.Equal(t, 1.0, ps[0].value)
	assert.Equal(t, 2.0, ps[1].value)

	other := newParams(map[string]float64{"w": 7}, "w", "c")
	err := c.Restore(optim.Params(other))
	require.ErrorIs(t, err, ErrParamMismatch)
	assert.Contains(t, err.Error(), `"c"`)
	assert.Contains(t, err.Error(), `"b"`)
	assert.Equal(t, 7.0, other[0].value, "nothing is written on mismatch")
}

func TestRestoreOptimizer_ContinuesTraining(t *testing.T) {
	grads := []float64{0.5, -0.2, 0.1, 0.7}

	// Reference: one optimizer stepping through all gradients.
	ref := newParams(map[string]float64{"p": 1}, "p")
	refOpt := optim.NewAdam(optim.Params(ref), optim.AdamConfig{LR: 0.05})
	for _, g := range grads {
		ref[0].grad = g
		refOpt.Step()
	}

	// Interrupted: two steps, checkpoint, restore into fresh objects, two steps.
	first := newParams(map[string]float64{"p": 1}, "p")
	firstOpt := optim.NewAdam(optim.Params(first), optim.AdamConfig{LR: 0.05})
	for _, g := range grads[:2] {
		first[0].grad = g
		firstOpt.Step()
	}
	raw := encode(t, Capture(optim.Params(first), "adam", firstOpt))
	c, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)

	resumed := newParams(nil, "p")
	require.NoError(t, c.Restore(optim.Params(resumed)))
	resumedOpt := optim.NewAdam(optim.Params(resumed), optim.AdamConfig{LR: 0.05})
	require.NoError(t, c.RestoreOptimizer(optim.Params(resumed), "adam", resumedOpt))
	for _, g := range grads[2:] {
		resumed[0].grad = g
		resumedOpt.Step()
	}

	assert.InDelta(t, ref[0].value, resumed[0].value, 1e-15)
	assert.Equal(t, refOpt.GetTimestep(), resumedOpt.GetTimestep())
}

func TestRestoreOptimizer_Mismatch(t *testing.T) {
	ps := newParams(nil, "p")
	sgd := optim.NewSGD(optim.Params(ps), optim.SGDConfig{})

	noState := &Checkpoint{Params: []Value{{Name: "p"}}}
	require.ErrorIs(t, noState.RestoreOptimizer(optim.Params(ps), "sgd", sgd), ErrOptimizerMismatch)

	saved := Capture(optim.Params(ps), "adam", optim.NewAdam(optim.Params(ps), optim.AdamConfig{}))
	require.ErrorIs(t, saved.RestoreOptimizer(optim.Params(ps), "sgd", sgd), ErrOptimizerMismatch)

	momentum := optim.NewSGD(optim.Params(ps), optim.SGDConfig{Momentum: 0.9})
	bad := &Checkpoint{
		Params:    []Value{{Name: "p"}},
		Optimizer: &OptimizerState{Name: "sgd", State: map[string]float64{"velocity.5": 1}},
	}
	require.ErrorIs(t, bad.RestoreOptimizer(optim.Params(ps), "sgd", momentum), ErrOptimizerMismatch)
}

func TestRestoreOptimizer_ReorderedParameters(t *testing.T) {
	saved := newParams(map[string]float64{"a": 1, "b": -1}, "a", "b")
	saved[0].grad, saved[1].grad = 4, 0.01
	opt := optim.NewRMSNorm(optim.Params(saved), optim.RMSNormConfig{LR: 0.1})
	opt.Step()
	c, err := Read(bytes.NewReader(encode(t, Capture(optim.Params(saved), "rms", opt))))
	require.NoError(t, err)

	// Same names, declared in the other order.
	reordered := newParams(nil, "b", "a")
	require.NoError(t, c.Restore(optim.Params(reordered)))
	assert.Equal(t, -1.0, reordered[0].value)
	assert.Equal(t, 1.0, reordered[1].value)

	fresh := optim.NewRMSNorm(optim.Params(reordered), optim.RMSNormConfig{LR: 0.1})
	err = c.RestoreOptimizer(optim.Params(reordered), "rms", fresh)
	require.ErrorIs(t, err, ErrOptimizerMismatch)
	assert.Contains(t, err.Error(), `parameter 0 is "b", saved as "a"`)
	assert.Equal(t, 1.0, fresh.Average(0), "state is left untouched")
	assert.Equal(t, 1.0, fresh.Average(1), "state is left untouched")
}
