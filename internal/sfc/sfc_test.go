package sfc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/tsclass/internal/overlay"
)

const component = `<script setup lang="ts">
import { ref } from 'vue'
const size = ref<1 | 2 | 3>(1)
const color = ref<'red' | 'blue'>('red')
</script>

<template>
  <div :class="` + "`size-${size} bg-${color}`" + `" />
</template>

<style scoped>
.a { color: red }
</style>
`

func TestParse(t *testing.T) {
	d, err := Parse("test.vue", component)
	require.NoError(t, err)

	require.NotNil(t, d.ScriptSetup)
	assert.Nil(t, d.Script)
	assert.True(t, d.ScriptSetup.Setup())
	assert.Equal(t, "ts", d.ScriptSetup.Lang())
	assert.Contains(t, d.ScriptSetup.Content, "const size = ref<1 | 2 | 3>(1)")
	assert.NotContains(t, d.ScriptSetup.Content, "<script")
	assert.Equal(t, d.ScriptSetup.Content, component[d.ScriptSetup.Start:d.ScriptSetup.End])

	require.NotNil(t, d.Template)
	assert.Contains(t, d.Template.Content, "<div")
	assert.NotContains(t, d.Template.Content, "</template>")

	require.Len(t, d.Styles, 1)
	assert.Contains(t, d.Styles[0].Content, ".a { color: red }")
	assert.Equal(t, []string{"script", "style", "template"}, d.BlockTypes())
}

func TestParseBlockBounds(t *testing.T) {
	src := "<script setup lang=\"TS\">const a = 1</script>\n<template>\n  <MyCard :isActive='on' Title=\"Hi\" />\n</template>\n"
	d, err := Parse("bounds.vue", src)
	require.NoError(t, err)

	require.NotNil(t, d.ScriptSetup)
	assert.Equal(t, "const a = 1", d.ScriptSetup.Content)
	assert.Equal(t, "TS", d.ScriptSetup.Attrs["lang"])
	assert.Equal(t, "ts", d.ScriptSetup.Lang())

	require.NotNil(t, d.Template)
	assert.Equal(t, "\n  <MyCard :isActive='on' Title=\"Hi\" />\n", d.Template.Content)

	root := parseTemplate(d.Template.Content)
	var card *element
	for _, child := range root.children {
		if child.tag != "" {
			card = child
		}
	}
	require.NotNil(t, card)
	assert.Equal(t, "MyCard", card.tag)
	assert.Equal(t, []attr{{name: ":isActive", value: "on"}, {name: "Title", value: "Hi"}}, card.attrs)
}

func TestParseNestedTemplate(t *testing.T) {
	src := `<template>
  <template v-if="ok"><span>a</span></template>
  <p>b</p>
</template>
<script>export default {}</script>`
	d, err := Parse("nested.vue", src)
	require.NoError(t, err)
	require.NotNil(t, d.Template)
	assert.Contains(t, d.Template.Content, "<p>b</p>")
	require.NotNil(t, d.Script)
	assert.False(t, d.Script.Setup())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unclosed script", src: "<script setup>const a = 1"},
		{name: "unclosed template", src: "<template><div></div>"},
		{name: "no blocks", src: "<style>.a{}</style>"},
		{name: "empty", src: ""},
		{name: "duplicate template", src: "<template></template><template></template>"},
		{name: "duplicate setup", src: "<script setup></script><script setup></script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.vue", tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRewrite(t *testing.T) {
	refs := map[string]bool{"size": true, "color": true}
	isRef := func(name string) bool { return refs[name] }

	tests := []struct {
		in   string
		want string
	}{
		{in: "size", want: "__sfc_unref(size)"},
		{in: "other", want: "other"},
		{in: "obj.size", want: "obj.size"},
		{in: "size.toFixed()", want: "__sfc_unref(size).toFixed()"},
		{in: "{ active: size }", want: "{ active: __sfc_unref(size) }"},
		{in: "{ size }", want: "{ size: __sfc_unref(size) }"},
		{in: "cond ? size : color", want: "cond ? __sfc_unref(size) : __sfc_unref(color)"},
		{in: "[size, 'x']", want: "[__sfc_unref(size), 'x']"},
		{in: "`a-${size}`", want: "`a-${__sfc_unref(size)}`"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, rewrite(tt.in, isRef))
		})
	}
}

func TestForExpression(t *testing.T) {
	tests := []struct {
		in      string
		aliases []string
		src     string
		ok      bool
	}{
		{in: "item in items", aliases: []string{"item"}, src: "items", ok: true},
		{in: "(item, index) in items", aliases: []string{"item", "index"}, src: "items", ok: true},
		{in: "{ id, name } of list", aliases: []string{"{ id, name }"}, src: "list", ok: true},
		{in: "items", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			aliases, src, ok := forExpression(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.aliases, aliases)
				assert.Equal(t, tt.src, src)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	d, err := Parse("src/test.vue", component)
	require.NoError(t, err)

	res, err := Compile(d)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"ref", "size", "color"}, res.Bindings)
	assert.True(t, strings.HasPrefix(res.Content, "import { normalizeClass as __sfc_normalizeClass"))
	assert.Contains(t, res.Content, "const color = ref<'red' | 'blue'>('red')")
	assert.Contains(t, res.Content,
		`__sfc_h("div", { ":class": __sfc_normalizeClass(`+"`size-${__sfc_unref(size)} bg-${__sfc_unref(color)}`"+`) });`)
	assert.Contains(t, res.Content, `__name: "test.vue"`)
	assert.True(t, strings.HasSuffix(res.Content, Augmentation))
	assert.NotContains(t, res.Content, ".a { color: red }")
}

func TestCompileTemplate(t *testing.T) {
	src := `<script setup lang="ts">
const items = ['a', 'b'] as const
const active = true
</script>
<template>
  <ul class="list">
    <li v-for="(item, i) in items" :key="i" :class="{ on: active }">{{ item }}</li>
  </ul>
  <p v-if="active">Hello  world</p>
  <p v-else>Bye</p>
  <MyList>
    <template #row="{ row }"><span :class="row.cls" /></template>
  </MyList>
</template>`
	d, err := Parse("list.vue", src)
	require.NoError(t, err)
	res, err := Compile(d)
	require.NoError(t, err)

	for _, want := range []string{
		`__sfc_h("ul", { "class": "list" });`,
		"for (const item of __sfc_unref(items)) {",
		"const i: any = undefined;",
		`":class": __sfc_normalizeClass({ on: __sfc_unref(active) })`,
		"__sfc_toDisplayString(item);",
		"if (__sfc_unref(active)) {",
		`__sfc_toDisplayString("Hello world");`,
		`__sfc_toDisplayString("Bye");`,
		`__sfc_h("MyList", {  });`,
		"const { row }: any = {};",
		`":class": __sfc_normalizeClass(row.cls)`,
	} {
		assert.Contains(t, res.Content, want)
	}
}

func TestCompileMergesNormalScript(t *testing.T) {
	src := `<script lang="ts">
export default { inheritAttrs: false }
</script>
<template><div class="x" /></template>`
	d, err := Parse("merge.vue", src)
	require.NoError(t, err)
	res, err := Compile(d)
	require.NoError(t, err)

	assert.Contains(t, res.Content, "const __sfc_main = { inheritAttrs: false }")
	assert.Contains(t, res.Content, `export default { ...__sfc_main, __name: "merge.vue", render: __sfc_render }`)
	assert.Empty(t, res.Bindings)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a \"b\" \\ c\n"`, quote("a \"b\" \\ c\n"))
	assert.Equal(t, `"\u0001"`, quote("\x01"))
}

func TestOverlayID(t *testing.T) {
	a := OverlayID("/src/App.vue", "<template></template>")
	b := OverlayID("/src/App.vue", "<template><div/></template>")

	assert.True(t, strings.HasPrefix(a, "/src/App.vue."))
	assert.True(t, strings.HasSuffix(a, ".ts"))
	assert.Len(t, a, len("/src/App.vue.")+8+len(".ts"))
	assert.Equal(t, a, OverlayID("/src/App.vue", "<template></template>"), "stable for equal input")
	assert.NotEqual(t, a, b, "distinct revisions get distinct identities")
}

func TestPreprocess(t *testing.T) {
	store := overlay.New()
	id, err := Preprocess(store, "/src/test.vue", component)
	require.NoError(t, err)
	assert.Equal(t, OverlayID("/src/test.vue", component), id)

	text, ok := store.Get(id)
	require.True(t, ok)
	assert.Contains(t, text, Augmentation)

	_, err = Preprocess(store, "/src/bad.vue", "<template>")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, 1, store.Len())
}

func TestStyleBindings(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want []string
	}{
		{name: "none", css: ".a { color: red }", want: nil},
		{name: "identifier", css: ".a { color: v-bind(color) }", want: []string{"color"}},
		{name: "quoted member", css: `.a { color: v-bind('theme.color') }`, want: []string{"theme.color"}},
		{name: "nested call", css: ".a { width: calc(v-bind(size) * 1px); height: v-bind(h) }", want: []string{"size", "h"}},
		{name: "unterminated", css: ".a { color: v-bind(color", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, styleBindings(tt.css))
		})
	}
}

func TestCompileStyleBindings(t *testing.T) {
	src := `<script setup lang="ts">
const tone = 'text-red'
</script>
<template><p /></template>
<style scoped>
p { color: v-bind(tone) }
</style>`
	d, err := Parse("tone.vue", src)
	require.NoError(t, err)
	res, err := Compile(d)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "  __sfc_unref(tone);\n")
}
