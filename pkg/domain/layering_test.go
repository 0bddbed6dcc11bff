package domain

import (
	"testing"

	"rotacore/testutil"
)

func TestDomainImportsStdlibOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.AnyOf(testutil.ThirdPartyImport, testutil.ModuleImport),
		"pkg/domain is shared by every layer")
}
