package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPython_DecoratedFunction_SignatureOnly(t *testing.T) {
	// Given: a ten-line Python file with one decorated function
	source := `import os

@app.route("/items")
def list_items(request):
    items = load(request)
    if not items:
        return []
    return items


`
	require.Len(t, strings.Split(source, "\n"), 11)
	m := newTestManager(t)

	// When: compressing it
	out, ok, err := m.Compress(context.Background(), source, "views.py", Options{})

	// Then: the decorator is directly followed by the signature and the body is gone
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "import os\n@app.route(\"/items\")\ndef list_items(request)", out)

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "@app.route") {
			require.Less(t, i+1, len(lines))
			assert.Equal(t, "def list_items(request)", lines[i+1])
		}
	}
	assert.NotContains(t, out, "load(request)")
}

func TestPython_ClassWithDocstring(t *testing.T) {
	source := `class Greeter(Base):
    """Says hello."""

    def greet(self, name: str) -> str:
        return f"hi {name}"
`
	m := newTestManager(t)

	out, _, err := m.Compress(context.Background(), source, "greeter.py", Options{})

	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"class Greeter(Base)",
		`    """Says hello."""`,
		"    def greet(self, name: str) -> str",
	}, "\n"), out)
}

func TestPython_RemoveCommentsDropsDocstrings(t *testing.T) {
	source := `# module comment
def f():
    """Doc."""
    return 1
`
	m := newTestManager(t)

	out, _, err := m.Compress(context.Background(), source, "f.py", Options{RemoveComments: true})

	require.NoError(t, err)
	assert.Equal(t, "def f()", out)
}

func TestPython_MultiLineSignature(t *testing.T) {
	source := `def build(
    a,
    b,
):
    return a
`
	m := newTestManager(t)

	out, _, err := m.Compress(context.Background(), source, "build.py", Options{})

	require.NoError(t, err)
	assert.Equal(t, "def build(\n    a,\n    b,\n)", out)
}

func TestPythonSignature(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"simple", []string{"def f(x):", "    pass"}, "def f(x)"},
		{"annotated", []string{"def f(x: int) -> dict[str, int]:", "    pass"}, "def f(x: int) -> dict[str, int]"},
		{"trailing comment", []string{"def f(x):  # noqa", "    pass"}, "def f(x)"},
		{"one liner", []string{"def f(): return 1"}, "def f()"},
		{"class", []string{"class A(B, metaclass=M):", "    pass"}, "class A(B, metaclass=M)"},
		{"hash in default", []string{"def f(sep='#'):", "    pass"}, "def f(sep='#')"},
		{"bracket in default", []string{`def g(self, y="("):`, "    pass"}, `def g(self, y="(")`},
		{"closing bracket in default", []string{`def g(y=")", z='['):`, "    pass"}, `def g(y=")", z='[')`},
		{"escaped quote in default", []string{`def g(y="\"("):`, "    pass"}, `def g(y="\"(")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pythonSignature(tt.lines, 0, len(tt.lines)-1))
		})
	}
}

func TestPython_BracketInStringDefault(t *testing.T) {
	// Given: a method whose default value contains an unbalanced bracket
	source := `class A(B):
    def g(self, y="("):
        pass

    @cached
    def f(x):
        return x
`
	m := newTestManager(t)

	// When: compressing it
	out, ok, err := m.Compress(context.Background(), source, "a.py", Options{})

	// Then: both methods keep their signatures
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.Join([]string{
		"class A(B)",
		`    def g(self, y="(")`,
		"    @cached",
		"    def f(x)",
	}, "\n"), out)
}

func TestPython_TypeAlias(t *testing.T) {
	// Given: a module with a type alias followed by a function
	source := `from typing import TypeAlias

Vector: TypeAlias = list[float]

def norm(v: Vector) -> float:
    return sum(x * x for x in v) ** 0.5
`
	m := newTestManager(t)

	// When: compressing it
	out, ok, err := m.Compress(context.Background(), source, "vec.py", Options{})

	// Then: the alias is emitted as one normalized line between import and signature
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.Join([]string{
		"from typing import TypeAlias",
		"Vector: TypeAlias = list[float]",
		"def norm(v: Vector) -> float",
	}, "\n"), out)
}

func TestPythonDecorators(t *testing.T) {
	lines := []string{
		"x = 1",
		"@first",
		"  @second(arg)",
		"def f():",
	}
	assert.Equal(t, []string{"@first", "  @second(arg)"}, pythonDecorators(lines, 3))
	assert.Empty(t, pythonDecorators(lines, 0))
}

func TestMarkup_IndentedSkeleton(t *testing.T) {
	source := `<html>
  <body>
    <div>
      <br/>
    </div>
    <div>
    </div>
  </body>
</html>
`
	m := newTestManager(t)

	out, ok, err := m.Compress(context.Background(), source, "index.html", Options{})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<html\n  <body\n    <div\n      <br", out)
}

func TestMarkup_XML(t *testing.T) {
	source := `<config>
  <server>
    <port>80</port>
  </server>
  <client>
    <port>81</port>
  </client>
</config>
`
	m := newTestManager(t)

	out, ok, err := m.Compress(context.Background(), source, "app.xml", Options{})

	require.NoError(t, err)
	require.True(t, ok)
	// Both <port> tags render identically at depth 2, so only the first is kept.
	assert.Equal(t, "<config\n  <server\n    <port\n  <client", out)
}

func TestComposite_Vue(t *testing.T) {
	source := `<template>
  <div class="app">
    <span>{{ msg }}</span>
  </div>
</template>

<script lang="ts">
import { ref } from 'vue'
export function useMsg(): string {
  return 'hi'
}
</script>

<style>
.app { color: red; }
</style>
`
	m := newTestManager(t)

	out, ok, err := m.Compress(context.Background(), source, "App.vue", Options{})

	require.NoError(t, err)
	require.True(t, ok)

	template := strings.Index(out, "<template")
	div := strings.Index(out, "  <div")
	style := strings.Index(out, ".app { color: red; }")
	imp := strings.Index(out, "import { ref } from 'vue'")
	fn := strings.Index(out, "export function useMsg(): string {")
	require.True(t, template >= 0 && div >= 0 && style >= 0 && imp >= 0 && fn >= 0, out)

	// Template, then style, then script.
	assert.Less(t, template, div)
	assert.Less(t, div, style)
	assert.Less(t, style, imp)
	assert.Less(t, imp, fn)
	assert.NotContains(t, out, "return 'hi'")
	assert.NotContains(t, out, "<script")

	// The script was parsed as typescript.
	assert.Contains(t, m.Prepared(), "typescript")
	assert.Contains(t, m.Prepared(), "css")
}

func TestComposite_Svelte(t *testing.T) {
	// Given: a svelte component with markup before its script and style
	source := `<main>
  <h1>Hello {name}</h1>
  <p>Welcome</p>
</main>

<script>
import { onMount } from 'svelte'
function greet(name) {
  return 'hi ' + name
}
</script>

<style>
h1 { color: red }
</style>
`
	m := newTestManager(t)

	// When: compressing it
	out, ok, err := m.Compress(context.Background(), source, "App.svelte", Options{})

	// Then: template skeleton, then style, then script
	require.NoError(t, err)
	require.True(t, ok)

	mainTag := strings.Index(out, "<main")
	h1 := strings.Index(out, "  <h1")
	p := strings.Index(out, "  <p")
	style := strings.Index(out, "h1 { color: red }")
	imp := strings.Index(out, "import { onMount } from 'svelte'")
	fn := strings.Index(out, "function greet(name) {")
	require.True(t, mainTag >= 0 && h1 >= 0 && p >= 0 && style >= 0 && imp >= 0 && fn >= 0, out)

	assert.Less(t, mainTag, h1)
	assert.Less(t, h1, p)
	assert.Less(t, p, style)
	assert.Less(t, style, imp)
	assert.Less(t, imp, fn)
	assert.NotContains(t, out, "return 'hi ' + name")
	assert.NotContains(t, out, "<script")

	// Without lang="ts" the script is javascript.
	assert.Contains(t, m.Prepared(), "javascript")
	assert.Contains(t, m.Prepared(), "css")
}

func TestScriptLanguage(t *testing.T) {
	assert.True(t, scriptLangPattern.MatchString(`<script lang="ts">`))
	assert.True(t, scriptLangPattern.MatchString(`<script setup lang='typescript'>`))
	assert.False(t, scriptLangPattern.MatchString(`<script>`))
	assert.False(t, scriptLangPattern.MatchString(`<script lang="tsx2">`))
}

func TestDefaultStrategy_SkipsUnselectedAndMalformed(t *testing.T) {
	lines := []string{"func A() {", "}", ""}
	pc := &ParseContext{Lines: lines}
	seen := make(dedupSet)
	s := defaultStrategy{}

	_, ok := s.Extract(Capture{Name: "definition.function", StartRow: 0, EndRow: 1}, lines, seen, pc)
	assert.False(t, ok, "body capture is not selected")

	_, ok = s.Extract(Capture{Name: "name.definition.function", StartRow: 9, EndRow: 9}, lines, seen, pc)
	assert.False(t, ok, "out of range row")

	_, ok = s.Extract(Capture{Name: "comment", StartRow: 2, EndRow: 2}, lines, seen, pc)
	assert.False(t, ok, "empty start line")

	got, ok := s.Extract(Capture{Name: "name.definition.function", StartRow: 0, EndRow: 0}, lines, seen, pc)
	assert.True(t, ok)
	assert.Equal(t, "func A() {", got)

	_, ok = s.Extract(Capture{Name: "name.definition.function", StartRow: 0, EndRow: 0}, lines, seen, pc)
	assert.False(t, ok, "duplicate")
}

func TestMarkupStrategy_NilNode(t *testing.T) {
	_, ok := markupStrategy{}.Extract(Capture{Name: "name.tag"}, nil, make(dedupSet), &ParseContext{})
	assert.False(t, ok)
}
