package exports

import (
	"testing"

	"lostfound/testutil"
)

func TestExportsUseBlobFacade(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden, "exports reach blob backends through internal/blob")
}
