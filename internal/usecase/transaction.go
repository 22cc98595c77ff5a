package usecase

import (
	"context"
	"fmt"
	"log"
)

type sagaStep struct {
	name     string
	do       func(context.Context) error
	undoName string
	undo     func(context.Context) error
}

// Transaction is a small saga: steps run in order, and when one fails the
// undo functions of the steps that already ran are called newest first.
type Transaction struct {
	steps []sagaStep
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.steps = append(t.steps, sagaStep{name: name, do: fn})
}

// AddCompensation attaches an undo to the most recently added operation.
func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	if len(t.steps) == 0 {
		return
	}
	last := &t.steps[len(t.steps)-1]
	last.undoName, last.undo = name, fn
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, s := range t.steps {
		if err := s.do(ctx); err != nil {
			undone := t.compensate(ctx, t.steps[:i])
			return fmt.Errorf("step %q failed: %w (%d compensations run)", s.name, err, undone)
		}
	}
	return nil
}

// compensate ignores cancellation of ctx: a verification that timed out
// must still undo what it already wrote.
func (t *Transaction) compensate(ctx context.Context, done []sagaStep) int {
	ctx = context.WithoutCancel(ctx)
	n := 0
	for i := len(done) - 1; i >= 0; i-- {
		s := done[i]
		if s.undo == nil {
			continue
		}
		n++
		if err := s.undo(ctx); err != nil {
			log.Printf("⚠️ [SAGA] compensação '%s' falhou: %v (estado inconsistente)", s.undoName, err)
		}
	}
	return n
}
