package locals

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Shopify/go-lua"
)

// LuaEvaluatorOption configures the Lua evaluator.
type LuaEvaluatorOption func(*luaEvaluator)

// LuaWithFunctionRegistry exposes registry functions as Lua globals.
func LuaWithFunctionRegistry(registry *FunctionRegistry) LuaEvaluatorOption {
	return func(e *luaEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// luaEvaluator runs watch expressions with github.com/Shopify/go-lua. Every
// evaluation gets a fresh state, so chunks are not cached.
type luaEvaluator struct {
	registry *FunctionRegistry
}

// NewLuaEvaluator constructs an Evaluator backed by a Lua 5.2 interpreter.
// The expression is evaluated as `return <expression>`; numbers come back as
// int when integral and float64 otherwise.
func NewLuaEvaluator(opts ...LuaEvaluatorOption) Evaluator {
	e := &luaEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *luaEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("lua", ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()

	state := lua.NewState()
	lua.OpenLibraries(state)
	for name, value := range ctx.Bindings {
		pushLuaValue(state, reflect.ValueOf(value))
		state.SetGlobal(name)
	}
	pushLuaValue(state, reflect.ValueOf(ctx.Args))
	state.SetGlobal("args")
	pushLuaValue(state, reflect.ValueOf(ctx.Metadata))
	state.SetGlobal("metadata")
	state.PushString(ctx.frameLabel())
	state.SetGlobal("frame")
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			state.Register(name, e.luaFunction(name))
		}
	}

	if err := lua.LoadString(state, "return "+expression); err != nil {
		return nil, wrapEvaluationError("lua", expression, ctx.frameLabel(), err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, wrapEvaluationError("lua", expression, ctx.frameLabel(), err)
	}
	result := luaToGo(state, -1)
	state.Pop(1)
	return result, nil
}

// Compile checks the expression syntax once and evaluates it per invocation.
func (e *luaEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("lua", ErrEmptyExpression)
	}
	if err := lua.LoadString(lua.NewState(), "return "+expression); err != nil {
		return nil, wrapEvaluationError("lua", expression, "", err)
	}
	return &luaCompiledRule{evaluator: e, expression: expression}, nil
}

type luaCompiledRule struct {
	evaluator  *luaEvaluator
	expression string
}

func (r *luaCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}

func (e *luaEvaluator) luaFunction(name string) lua.Function {
	return func(state *lua.State) int {
		args := make([]any, 0, state.Top())
		for idx := 1; idx <= state.Top(); idx++ {
			args = append(args, luaToGo(state, idx))
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			lua.Errorf(state, "%s", err.Error())
		}
		pushLuaValue(state, reflect.ValueOf(result))
		return 1
	}
}

// pushLuaValue pushes v onto the stack. Sequences become 1-based tables,
// maps keep their string and integer keys, structs expose exported fields.
// Suppressed values and anything else without a Lua form push nil.
func pushLuaValue(state *lua.State, v reflect.Value) {
	v = indirect(v)
	if !v.IsValid() {
		state.PushNil()
		return
	}
	switch v.Kind() {
	case reflect.Bool:
		state.PushBoolean(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		state.PushInteger(int(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		state.PushNumber(float64(v.Uint()))
	case reflect.Float32, reflect.Float64:
		state.PushNumber(v.Float())
	case reflect.String:
		state.PushString(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			state.PushString(string(v.Bytes()))
			return
		}
		state.NewTable()
		for idx := 0; idx < v.Len(); idx++ {
			pushLuaValue(state, v.Index(idx))
			state.RawSetInt(-2, idx+1)
		}
	case reflect.Map:
		state.NewTable()
		iter := v.MapRange()
		for iter.Next() {
			key := indirect(iter.Key())
			switch key.Kind() {
			case reflect.String:
				pushLuaValue(state, iter.Value())
				state.SetField(-2, key.String())
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				pushLuaValue(state, iter.Value())
				state.RawSetInt(-2, int(key.Int()))
			}
		}
	case reflect.Struct:
		if isSuppressed(v) {
			state.PushNil()
			return
		}
		state.NewTable()
		t := v.Type()
		for idx := 0; idx < t.NumField(); idx++ {
			if !t.Field(idx).IsExported() {
				continue
			}
			pushLuaValue(state, v.Field(idx))
			state.SetField(-2, t.Field(idx).Name)
		}
	default:
		state.PushNil()
	}
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeLuaNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return luaTableToGo(state, index)
	default:
		return nil
	}
}

// luaTableToGo returns []any for tables keyed 1..n and map[string]any for
// everything else; non-string keys of a map-like table are rendered with %v.
func luaTableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for idx := 1; idx <= maxIndex; idx++ {
			state.RawGetInt(index, idx)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	output := map[string]any{}
	state.PushNil()
	for state.Next(index) {
		key := fmt.Sprint(luaToGo(state, -2))
		output[key] = luaToGo(state, -1)
		state.Pop(1)
	}
	return output
}

func normalizeLuaNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int(value)
	}
	return value
}
