package checker

import _ "embed"

// LibPath is the synthetic path of the bundled declaration file.
const LibPath = "/__tsclass__/lib/vue.d.ts"

//go:embed lib/vue.d.ts
var libVue string
