package solver

import (
	"testing"

	"rotacore/testutil"
)

func TestSolverIsSelfContained(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.ThirdPartyImportExcept("github.com/crillab/gophersat"), testutil.ModuleImport),
		"the engine is generic and must not know about rosters or backends")
}
