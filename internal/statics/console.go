package statics

import (
	"fmt"
	"strings"

	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// installConsole binds the `console.log` convenience global scripts
// expect for ad hoc debugging output.
func installConsole(v *vm.VM, p protoChain) {
	logFn := object.NewNativeFunction(v.Protos.Function, func(ctx *object.CallContext) (value.Value, error) {
		parts := make([]string, len(ctx.Args))
		for i, a := range ctx.Args {
			parts[i] = v.ToJSString(a)
		}
		fmt.Println(strings.Join(parts, " "))
		return value.Undefined(), nil
	}, false)

	console := object.NewOrdinary(p.object)
	console.SetOwn(object.NameKey(v.It, "log"), object.StaticProperty(value.Object(v.Heap.Alloc(logFn))))

	g, ok := v.Heap.Get(v.Global.AsObjectId()).(object.Object)
	if !ok {
		return
	}
	bindGlobal(v, g, "console", value.Object(v.Heap.Alloc(console)))
}
