package services

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

var newStageGateCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("fully_approved", cel.BoolType),
		cel.Variable("reviewers", cel.IntType),
		cel.Variable("total_items", cel.IntType),
		cel.Variable("approved", cel.IntType),
		cel.Variable("pending", cel.IntType),
		cel.Variable("rejected", cel.IntType),
		cel.Variable("run_status", cel.StringType),
	)
}

var stageGateProgramCache sync.Map

// StageGate decides whether the continue-to-disbursement action is enabled.
type StageGate struct {
	expr    string
	program cel.Program
}

// GateInput is the activation handed to the unlock expression.
type GateInput struct {
	FullyApproved bool
	Reviewers     int
	Progress      types.RunProgress
}

// NewStageGate compiles expr once; a bad expression fails at start-up, not
// on the first request.
func NewStageGate(expr string) (*StageGate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultUnlockExpression
	}
	program, err := loadOrCompileGateProgram(expr)
	if err != nil {
		return nil, err
	}
	return &StageGate{expr: expr, program: program}, nil
}

func (g *StageGate) Expression() string { return g.expr }

func (g *StageGate) Allow(in GateInput) (bool, error) {
	out, _, err := g.program.Eval(map[string]any{
		"fully_approved": in.FullyApproved,
		"reviewers":      int64(in.Reviewers),
		"total_items":    int64(in.Progress.TotalItems),
		"approved":       int64(in.Progress.TotalApproved),
		"pending":        int64(in.Progress.TotalPending),
		"rejected":       int64(in.Progress.TotalRejected),
		"run_status":     in.Progress.Run.Status,
	})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("stage gate: expression did not yield a bool")
	}
	return v, nil
}

func loadOrCompileGateProgram(expr string) (cel.Program, error) {
	if cached, ok := stageGateProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newStageGateCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.New("stage gate: expression output type must be bool")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	stageGateProgramCache.Store(expr, program)
	return program, nil
}
