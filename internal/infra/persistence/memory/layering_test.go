package memory

import (
	"testing"

	"rotacore/testutil"
)

func TestImportsAreDomainOrStdlib(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportExcept("rotacore/pkg/domain"),
		"the memory store is the base of the SQL stores")
}
