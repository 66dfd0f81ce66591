package domain

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

const generatedHeader = "// Code generated by hotpath. DO NOT EDIT."

// boundary symbol prefix; the loader looks these up in the shared object
const symbolPrefix = "hp_"

// Assembler merges all translation results of a run into one compilable
// extension module.
type Assembler interface {
	Assemble(results []m.TranslationResult) (*m.GeneratedModule, error)
}

type assembler struct {
	log *zap.SugaredLogger
}

func NewAssembler(log *zap.SugaredLogger) Assembler {
	return &assembler{log: log}
}

// Assemble renders the pure-Go unit, the cgo boundary file, and the module
// manifest. Rendering is fully deterministic: results are processed in
// selection order and nothing iterates a map.
func (a *assembler) Assemble(results []m.TranslationResult) (*m.GeneratedModule, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("assemble: no translation results")
	}

	mod := &m.GeneratedModule{
		Files:    map[string][]byte{},
		Manifest: []m.ManifestEntry{m.ManifestCShared},
	}

	usesView := false
	for _, r := range results {
		mod.Exports = append(mod.Exports, symbolPrefix+r.Target.Name)
		if r.UsesArrayView {
			usesView = true
		}
	}
	if usesView {
		mod.Manifest = append(mod.Manifest, m.ManifestNumericArray)
	}

	mod.Files[m.FileExt] = []byte(renderExt(results))
	mod.Files[m.FileBridge] = []byte(renderBridge(results))
	mod.Files[m.FileGoMod] = []byte("module hotpath_ext\n\ngo 1.25\n")

	a.log.Debugw("module assembled", "exports", len(mod.Exports), "arrayViews", usesView)
	return mod, nil
}

// renderExt writes the pure-Go translation unit. It must compile standalone
// under go/parser + go/types so the validation gate can check it without
// touching cgo.
func renderExt(results []m.TranslationResult) string {
	usesMath, floorDiv, floorMod := false, false, false
	for _, r := range results {
		usesMath = usesMath || r.UsesMath
		floorDiv = floorDiv || r.UsesFloorDiv
		floorMod = floorMod || r.UsesFloorMod
	}

	var b strings.Builder
	b.WriteString(generatedHeader + "\n\npackage main\n\n")
	if usesMath {
		b.WriteString("import (\n\t\"errors\"\n\t\"math\"\n)\n\n")
	} else {
		b.WriteString("import \"errors\"\n\n")
	}
	b.WriteString("// ErrLengthMismatch reports sequence arguments of unequal length.\n")
	b.WriteString("var ErrLengthMismatch = errors.New(\"hotpath: sequence length mismatch\")\n")
	if floorDiv {
		b.WriteString("\n// floorDiv rounds the quotient toward negative infinity, as // does.\n")
		b.WriteString("func floorDiv(a, b int64) int64 {\n")
		b.WriteString("\tq := a / b\n")
		b.WriteString("\tif a%b != 0 && (a < 0) != (b < 0) {\n\t\tq--\n\t}\n")
		b.WriteString("\treturn q\n}\n")
	}
	if floorMod {
		b.WriteString("\n// floorMod keeps the divisor's sign, as % does on integers.\n")
		b.WriteString("func floorMod(a, b int64) int64 {\n")
		b.WriteString("\tr := a % b\n")
		b.WriteString("\tif r != 0 && (r < 0) != (b < 0) {\n\t\tr += b\n\t}\n")
		b.WriteString("\treturn r\n}\n")
	}

	for _, r := range results {
		b.WriteString("\n")
		if r.Status == m.StatusFallback {
			writeFallbackStub(&b, r)
			continue
		}
		writeFullFunc(&b, r)
	}
	return b.String()
}

func writeFullFunc(b *strings.Builder, r m.TranslationResult) {
	fmt.Fprintf(b, "// %s is translated from %s (source line %d).\n",
		r.GoName, r.Target.Name, r.Target.StartLine)
	fmt.Fprintf(b, "func %s(", r.GoName)
	for i, p := range r.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s %s", p.Name, p.Hint.GoType())
	}
	fmt.Fprintf(b, ") (%s, error) {\n", r.Return.GoType())
	for _, line := range r.Statements {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString("}\n")
}

// writeFallbackStub writes the passthrough stub: it echoes its input so the
// caller keeps the original interpreted implementation authoritative.
func writeFallbackStub(b *strings.Builder, r m.TranslationResult) {
	fmt.Fprintf(b, "// %s is a passthrough stub; %s was not translatable.\n",
		r.GoName, r.Target.Name)
	fmt.Fprintf(b, "func %s(arg any) (any, error) {\n\treturn arg, nil\n}\n", r.GoName)
}

// renderBridge writes the cgo boundary file. Every result gets exactly one
// exported wrapper, stubs included.
func renderBridge(results []m.TranslationResult) string {
	var b strings.Builder
	b.WriteString(generatedHeader + "\n\npackage main\n\n")
	b.WriteString("/*\n#include <stdint.h>\n*/\nimport \"C\"\n")
	if bridgeNeedsUnsafe(results) {
		b.WriteString("\nimport \"unsafe\"\n")
	}

	for _, r := range results {
		b.WriteString("\n")
		if r.Status == m.StatusFallback {
			writeFallbackWrapper(&b, r)
			continue
		}
		writeFullWrapper(&b, r)
	}

	b.WriteString("\nfunc main() {}\n")
	return b.String()
}

// bridgeNeedsUnsafe reports whether any wrapper marshals through an
// unsafe.Pointer: sequence or view parameters, flattened returns, or a
// fallback stub. Scalar-only modules import nothing beyond "C".
func bridgeNeedsUnsafe(results []m.TranslationResult) bool {
	for _, r := range results {
		if r.Status == m.StatusFallback {
			return true
		}
		for _, p := range r.Params {
			if p.Hint.IsSequence() {
				return true
			}
		}
		switch r.Return.Kind {
		case m.KindSequence, m.KindArrayView, m.KindPairCount:
			return true
		}
	}
	return false
}

func writeFallbackWrapper(b *strings.Builder, r m.TranslationResult) {
	sym := symbolPrefix + r.Target.Name
	fmt.Fprintf(b, "//export %s\n", sym)
	fmt.Fprintf(b, "func %s(arg unsafe.Pointer) unsafe.Pointer {\n", sym)
	fmt.Fprintf(b, "\tout, _ := %s(arg)\n", r.GoName)
	b.WriteString("\treturn out.(unsafe.Pointer)\n}\n")
}

// cParam renders the C-side parameter list fragment for one hint.
func cParam(name string, h m.TypeHint) string {
	switch h.Kind {
	case m.KindFloat64:
		return name + " C.double"
	case m.KindInt64:
		return name + " C.longlong"
	case m.KindBool:
		return name + " C.int"
	case m.KindText:
		return name + " *C.char"
	case m.KindSequence, m.KindArrayView:
		return fmt.Sprintf("%s *C.%s, %sLen C.longlong", name, cElem(h.Elem), name)
	}
	return name + " unsafe.Pointer"
}

func cElem(k m.HintKind) string {
	if k == m.KindInt64 {
		return "longlong"
	}
	return "double"
}

func goElem(k m.HintKind) string {
	if k == m.KindInt64 {
		return "int64"
	}
	return "float64"
}

func writeFullWrapper(b *strings.Builder, r m.TranslationResult) {
	sym := symbolPrefix + r.Target.Name

	var cparams []string
	for _, p := range r.Params {
		cparams = append(cparams, cParam(p.Name, p.Hint))
	}
	switch r.Return.Kind {
	case m.KindFloat64:
		cparams = append(cparams, "out *C.double")
	case m.KindInt64:
		cparams = append(cparams, "out *C.longlong")
	case m.KindBool:
		cparams = append(cparams, "out *C.int")
	case m.KindSequence, m.KindArrayView:
		cparams = append(cparams,
			fmt.Sprintf("out *C.%s, outCap C.longlong, outLen *C.longlong", cElem(r.Return.Elem)))
	case m.KindPairCount:
		cparams = append(cparams, "out *C.longlong, outCap C.longlong, outLen *C.longlong")
	}

	fmt.Fprintf(b, "//export %s\n", sym)
	fmt.Fprintf(b, "func %s(%s) C.int {\n", sym, strings.Join(cparams, ", "))

	// marshal arguments; views alias the caller's buffer, sequences copy
	var args []string
	for _, p := range r.Params {
		gn := p.Name + "Arg"
		switch p.Hint.Kind {
		case m.KindFloat64:
			fmt.Fprintf(b, "\t%s := float64(%s)\n", gn, p.Name)
		case m.KindInt64:
			fmt.Fprintf(b, "\t%s := int64(%s)\n", gn, p.Name)
		case m.KindBool:
			fmt.Fprintf(b, "\t%s := %s != 0\n", gn, p.Name)
		case m.KindText:
			fmt.Fprintf(b, "\t%s := C.GoString(%s)\n", gn, p.Name)
		case m.KindArrayView:
			fmt.Fprintf(b, "\t%s := unsafe.Slice((*%s)(unsafe.Pointer(%s)), int(%sLen))\n",
				gn, goElem(p.Hint.Elem), p.Name, p.Name)
		case m.KindSequence:
			fmt.Fprintf(b, "\t%s := make([]%s, int(%sLen))\n", gn, goElem(p.Hint.Elem), p.Name)
			fmt.Fprintf(b, "\tcopy(%s, unsafe.Slice((*%s)(unsafe.Pointer(%s)), int(%sLen)))\n",
				gn, goElem(p.Hint.Elem), p.Name, p.Name)
		}
		args = append(args, gn)
	}

	fmt.Fprintf(b, "\tret, err := %s(%s)\n", r.GoName, strings.Join(args, ", "))
	b.WriteString("\tif err != nil {\n\t\treturn 1\n\t}\n")

	switch r.Return.Kind {
	case m.KindFloat64:
		b.WriteString("\t*out = C.double(ret)\n")
	case m.KindInt64:
		b.WriteString("\t*out = C.longlong(ret)\n")
	case m.KindBool:
		b.WriteString("\t*out = 0\n\tif ret {\n\t\t*out = 1\n\t}\n")
	case m.KindSequence, m.KindArrayView:
		b.WriteString("\tif int64(len(ret)) > int64(outCap) {\n\t\treturn 2\n\t}\n")
		fmt.Fprintf(b, "\tcopy(unsafe.Slice((*%s)(unsafe.Pointer(out)), len(ret)), ret)\n",
			goElem(r.Return.Elem))
		b.WriteString("\t*outLen = C.longlong(len(ret))\n")
	case m.KindPairCount:
		b.WriteString("\tif int64(len(ret)*3) > int64(outCap) {\n\t\treturn 2\n\t}\n")
		b.WriteString("\tflat := unsafe.Slice((*int64)(unsafe.Pointer(out)), len(ret)*3)\n")
		b.WriteString("\ti := 0\n")
		b.WriteString("\tfor k, v := range ret {\n")
		b.WriteString("\t\tflat[i], flat[i+1], flat[i+2] = k[0], k[1], v\n")
		b.WriteString("\t\ti += 3\n")
		b.WriteString("\t}\n")
		b.WriteString("\t*outLen = C.longlong(len(ret) * 3)\n")
	}
	b.WriteString("\treturn 0\n}\n")
}
