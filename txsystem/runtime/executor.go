package runtime

import (
	"fmt"

	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
)

type (
	TxExecutors map[types.ContractType]TxHandler

	TxHandler struct {
		Validate ExecuteFunc
		Execute  ExecuteFunc
	}

	ExecuteFunc func(c *types.Contract, exeCtx *ExecutionContext) error

	GenericExecuteFunc[T any] func(param *T, exeCtx *ExecutionContext) error

	// ExecutionContext gives precompiled contracts access to the state.
	ExecutionContext struct {
		Store     *store.Store
		Props     *properties.Properties
		BlockTime uint64 // timestamp of the block being produced
	}
)

func (g GenericExecuteFunc[T]) ExecuteFunc() ExecuteFunc {
	return func(c *types.Contract, exeCtx *ExecutionContext) error {
		param := new(T)
		if err := c.UnmarshalParameter(param); err != nil {
			return fmt.Errorf("failed to unmarshal %s parameter: %w", c.Type, err)
		}
		return g(param, exeCtx)
	}
}

func NewTxHandler[T any](validate, execute GenericExecuteFunc[T]) TxHandler {
	return TxHandler{Validate: validate.ExecuteFunc(), Execute: execute.ExecuteFunc()}
}

func (e TxExecutors) handler(c *types.Contract) (TxHandler, error) {
	if c == nil {
		return TxHandler{}, fmt.Errorf("contract is nil")
	}
	h, found := e[c.Type]
	if !found {
		return TxHandler{}, fmt.Errorf("%w: %s", types.ErrUnknownContractType, c.Type)
	}
	return h, nil
}

func (e TxExecutors) Validate(c *types.Contract, exeCtx *ExecutionContext) error {
	h, err := e.handler(c)
	if err != nil {
		return err
	}
	if err := h.Validate(c, exeCtx); err != nil {
		return fmt.Errorf("%s validation failed: %w", c.Type, err)
	}
	return nil
}

func (e TxExecutors) Execute(c *types.Contract, exeCtx *ExecutionContext) error {
	h, err := e.handler(c)
	if err != nil {
		return err
	}
	if err := h.Execute(c, exeCtx); err != nil {
		return fmt.Errorf("%s execution failed: %w", c.Type, err)
	}
	return nil
}

func (e TxExecutors) Add(src TxExecutors) error {
	for typ, handler := range src {
		if handler.Validate == nil || handler.Execute == nil {
			return fmt.Errorf("tx handler must not be nil (%s)", typ)
		}
		if _, ok := e[typ]; ok {
			return fmt.Errorf("tx handler for %s is already registered", typ)
		}
		e[typ] = handler
	}
	return nil
}
