package generator

import (
	"fmt"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/internal/policy"
)

// writeRecordTests writes the <Name>Tests class validating a record's
// identity, blittability, layout kind and size with the selected framework
func (r *run) writeRecordTests(n *ast.Node, name string) {
	out := r.createEmitter(strings.TrimPrefix(name, "@")+"Tests", true)
	if r.opts.TestsNUnit {
		out.AddUsingDirective("NUnit.Framework")
	} else {
		out.AddUsingDirective("Xunit")
	}
	out.AddUsingDirective(usingInterop)

	out.WriteIndentedLine(`/// <summary>Provides validation of the <see cref="` + name + `" /> struct.</summary>`)
	out.WriteIndentedLine("public static unsafe partial class " + strings.TrimPrefix(name, "@") + "Tests")
	out.WriteBlockStart()

	if n.UUID != "" {
		if _, err := policy.ParseGUID(n.UUID); err == nil {
			out.AddUsingDirective(usingSystem)
			out.AddUsingDirective("static " + r.opts.Namespace + "." + r.opts.MethodClassName)
			r.writeTest(out, `Validates that the <see cref="Guid" /> of the <see cref="`+name+`" /> struct is correct.`, "GuidOfTest", func() {
				r.writeAssertEqual(out, "IID_"+strings.TrimPrefix(name, "@"), "typeof("+name+").GUID")
			})
		}
	}

	r.writeTest(out, `Validates that the <see cref="`+name+`" /> struct is blittable.`, "IsBlittableTest", func() {
		r.writeAssertEqual(out, "sizeof("+name+")", "Marshal.SizeOf<"+name+">()")
	})

	// Records are always bound with LayoutKind.Explicit
	r.writeTest(out, `Validates that the <see cref="`+name+`" /> struct has the right <see cref="LayoutKind" />.`, "IsLayoutExplicitTest", func() {
		r.writeAssertTrue(out, "typeof("+name+").IsExplicitLayout")
	})

	size32, size64 := n.Type.SizeOf(false), n.Type.SizeOf(true)
	if (size32 == 0 || size64 == 0) && n.UUID == "" {
		r.report(diag.Info, n, "%s has a size of 0", name)
	}
	r.writeTest(out, `Validates that the <see cref="`+name+`" /> struct has the correct size.`, "SizeOfTest", func() {
		if size32 == size64 {
			r.writeAssertEqual(out, fmt.Sprint(max(size32, 1)), "sizeof("+name+")")
			return
		}
		out.AddUsingDirective(usingSystem)
		out.WriteIndentedLine("if (Environment.Is64BitProcess)")
		out.WriteBlockStart()
		r.writeAssertEqual(out, fmt.Sprint(max(size64, 1)), "sizeof("+name+")")
		out.WriteBlockEnd()
		out.WriteIndentedLine("else")
		out.WriteBlockStart()
		r.writeAssertEqual(out, fmt.Sprint(max(size32, 1)), "sizeof("+name+")")
		out.WriteBlockEnd()
	})

	out.WriteBlockEnd()
}

// writeTest writes one documented test method whose body is produced by body
func (r *run) writeTest(out *emitter.Emitter, summary, method string, body func()) {
	startMember(out)
	out.WriteIndentedLine("/// <summary>" + summary + "</summary>")
	if r.opts.TestsNUnit {
		out.WriteIndentedLine("[Test]")
	} else {
		out.WriteIndentedLine("[Fact]")
	}
	out.WriteIndentedLine("public static void " + method + "()")
	out.WriteBlockStart()
	body()
	out.WriteBlockEnd()
	endMember(out)
}

func (r *run) writeAssertEqual(out *emitter.Emitter, expected, actual string) {
	if r.opts.TestsNUnit {
		out.WriteIndented("Assert.That(" + actual + ", Is.EqualTo(" + expected + "))")
	} else {
		out.WriteIndented("Assert.Equal(" + expected + ", " + actual + ")")
	}
	out.WriteSemicolon()
	out.WriteNewline()
}

func (r *run) writeAssertTrue(out *emitter.Emitter, value string) {
	if r.opts.TestsNUnit {
		out.WriteIndented("Assert.That(" + value + ", Is.True)")
	} else {
		out.WriteIndented("Assert.True(" + value + ")")
	}
	out.WriteSemicolon()
	out.WriteNewline()
}
