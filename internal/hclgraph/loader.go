package hclgraph

import (
	"context"
	"fmt"
	"os"

	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/ctxlog"
	"github.com/born-ml/dagrad/internal/optim"
	"github.com/born-ml/dagrad/internal/train"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Model is a loaded description: the graph plus how to train it.
type Model struct {
	Tape     *autodiff.Tape
	Graph    *autodiff.Graph
	Training Training
	Samples  []train.Sample
}

// Training holds the optional training block.
type Training struct {
	Optimizer string    `hcl:"optimizer,optional"`
	LR        float64   `hcl:"lr,optional"`
	Momentum  float64   `hcl:"momentum,optional"`
	Rho       float64   `hcl:"rho,optional"`
	Eps       float64   `hcl:"eps,optional"`
	Betas     []float64 `hcl:"betas,optional"`
	Epochs    int       `hcl:"epochs,optional"`
}

// Settings converts the training block into optimizer settings.
func (t Training) Settings() optim.Settings {
	s := optim.Settings{
		Name:     t.Optimizer,
		LR:       t.LR,
		Momentum: t.Momentum,
		Rho:      t.Rho,
		Eps:      t.Eps,
	}
	if len(t.Betas) == 2 {
		s.Betas = [2]float64{t.Betas[0], t.Betas[1]}
	}
	return s
}

// Optimizer builds the configured optimizer over the graph's parameters.
func (m *Model) Optimizer() (optim.Optimizer, error) {
	return optim.New(m.Training.Settings(), optim.Params(m.Graph.Parameters()))
}

// fileRoot is decoded from the whole description.
type fileRoot struct {
	Params   []*leafBlock   `hcl:"param,block"`
	Inputs   []*leafBlock   `hcl:"input,block"`
	Ops      []*opBlock     `hcl:"op,block"`
	Training *Training      `hcl:"training,block"`
	Samples  []*sampleBlock `hcl:"sample,block"`
	Outputs  hcl.Expression `hcl:"outputs,optional"`
	Loss     hcl.Expression `hcl:"loss"`
}

type leafBlock struct {
	Name  string  `hcl:"name,label"`
	Value float64 `hcl:"value,optional"`
}

type opBlock struct {
	Name     string         `hcl:"name,label"`
	Kind     string         `hcl:"kind"`
	Operands hcl.Expression `hcl:"operands"`
	Exponent *float64       `hcl:"exponent,optional"`
}

type sampleBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Load reads and decodes the description at path.
func Load(ctx context.Context, path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return Decode(ctx, path, src)
}

// Decode builds a Model from HCL source. filename is only used in diagnostics.
func Decode(ctx context.Context, filename string, src []byte) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL graph loader started.", "file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	b := &builder{
		tape:  autodiff.NewTape(),
		names: make(map[string]autodiff.NodeID),
	}
	if err := b.declare(&root); err != nil {
		return nil, err
	}
	logger.Debug("Declared nodes.", "count", b.tape.Len())

	evalCtx := b.evalContext()
	if err := b.wire(evalCtx, root.Ops); err != nil {
		return nil, err
	}

	outputs, err := b.outputs(evalCtx, root.Outputs)
	if err != nil {
		return nil, err
	}
	loss, err := b.ref(evalCtx, root.Loss)
	if err != nil {
		return nil, fmt.Errorf("loss: %w", err)
	}

	graph, err := autodiff.NewGraph(b.tape, b.leaves, outputs, loss, autodiff.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build graph from %s: %w", filename, err)
	}

	samples, err := decodeSamples(root.Samples)
	if err != nil {
		return nil, err
	}

	training := Training{Optimizer: "sgd", Epochs: 1}
	if root.Training != nil {
		training = *root.Training
		if training.Optimizer == "" {
			training.Optimizer = "sgd"
		}
		if training.Epochs == 0 {
			training.Epochs = 1
		}
		if n := len(training.Betas); n != 0 && n != 2 {
			return nil, fmt.Errorf("training block in %s: betas needs 2 values, got %d", filename, n)
		}
	}

	logger.Debug("HCL graph loader finished.",
		"nodes", len(graph.Order()), "parameters", len(graph.Parameters()), "samples", len(samples))
	return &Model{
		Tape:     b.tape,
		Graph:    graph,
		Training: training,
		Samples:  samples,
	}, nil
}

// builder declares every node, then wires operations by name.
type builder struct {
	tape   *autodiff.Tape
	names  map[string]autodiff.NodeID
	leaves []autodiff.NodeID
}

func (b *builder) declare(root *fileRoot) error {
	for _, p := range root.Params {
		if err := b.declareLeaf(p, autodiff.KindParameter); err != nil {
			return err
		}
	}
	for _, in := range root.Inputs {
		if err := b.declareLeaf(in, autodiff.KindInput); err != nil {
			return err
		}
	}
	for _, o := range root.Ops {
		if err := b.unique(o.Name); err != nil {
			return err
		}
		exponent := 0.0
		if o.Exponent != nil {
			exponent = *o.Exponent
		} else if o.Kind == "pow" {
			return fmt.Errorf("op %q: kind \"pow\" requires an exponent", o.Name)
		}
		op, err := ops.Lookup(o.Kind, exponent)
		if err != nil {
			return fmt.Errorf("op %q: %w", o.Name, err)
		}
		id, err := b.tape.Declare(o.Name, op)
		if err != nil {
			return fmt.Errorf("op %q: %w", o.Name, err)
		}
		b.names[o.Name] = id
	}
	return nil
}

func (b *builder) declareLeaf(l *leafBlock, kind autodiff.Kind) error {
	if err := b.unique(l.Name); err != nil {
		return err
	}
	id, err := b.tape.DeclareLeaf(l.Name, kind, l.Value)
	if err != nil {
		return fmt.Errorf("%s %q: %w", kind, l.Name, err)
	}
	b.names[l.Name] = id
	b.leaves = append(b.leaves, id)
	return nil
}

func (b *builder) unique(name string) error {
	if _, ok := b.names[name]; ok {
		return fmt.Errorf("duplicate node name %q", name)
	}
	return nil
}

// evalContext binds every node name to itself, so a bare identifier in an
// expression evaluates to the name it references and unknown names are
// reported by HCL with their source range.
func (b *builder) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(b.names))
	for name := range b.names {
		vars[name] = cty.StringVal(name)
	}
	return &hcl.EvalContext{Variables: vars}
}

func (b *builder) wire(evalCtx *hcl.EvalContext, opBlocks []*opBlock) error {
	for _, o := range opBlocks {
		refs, err := b.refs(evalCtx, o.Operands)
		if err != nil {
			return fmt.Errorf("op %q operands: %w", o.Name, err)
		}
		if err := b.tape.Wire(b.names[o.Name], refs...); err != nil {
			return fmt.Errorf("op %q: %w", o.Name, err)
		}
	}
	return nil
}

func (b *builder) outputs(evalCtx *hcl.EvalContext, expr hcl.Expression) ([]autodiff.NodeID, error) {
	outputs, err := b.refs(evalCtx, expr)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	return outputs, nil
}

// refs evaluates a list of node references. A null (absent) list is empty.
func (b *builder) refs(evalCtx *hcl.EvalContext, expr hcl.Expression) ([]autodiff.NodeID, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	list, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("expected a list of node references: %w", err)
	}
	var names []string
	if err := gocty.FromCtyValue(list, &names); err != nil {
		return nil, err
	}
	ids := make([]autodiff.NodeID, len(names))
	for i, name := range names {
		id, err := b.lookup(name)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// ref evaluates a single node reference.
func (b *builder) ref(evalCtx *hcl.EvalContext, expr hcl.Expression) (autodiff.NodeID, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, diags
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil || str.IsNull() {
		return 0, fmt.Errorf("expected a node reference")
	}
	var name string
	if err := gocty.FromCtyValue(str, &name); err != nil {
		return 0, err
	}
	return b.lookup(name)
}

func (b *builder) lookup(name string) (autodiff.NodeID, error) {
	id, ok := b.names[name]
	if !ok {
		return 0, fmt.Errorf("unknown node %q", name)
	}
	return id, nil
}

// decodeSamples reads every sample block as input name = number.
func decodeSamples(blocks []*sampleBlock) ([]train.Sample, error) {
	samples := make([]train.Sample, 0, len(blocks))
	for i, blk := range blocks {
		attrs, diags := blk.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("sample %d: %w", i, diags)
		}
		sample := make(train.Sample, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("sample %d: %w", i, diags)
			}
			num, err := convert.Convert(val, cty.Number)
			if err != nil {
				return nil, fmt.Errorf("sample %d, %s: %w", i, name, err)
			}
			var v float64
			if err := gocty.FromCtyValue(num, &v); err != nil {
				return nil, fmt.Errorf("sample %d, %s: %w", i, name, err)
			}
			sample[name] = v
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
