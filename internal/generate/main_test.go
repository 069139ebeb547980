package generate

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/Norgate-AV/protogen/internal/testutil/fakeprotoc"
)

func TestMain(m *testing.M) {
	fakeprotoc.Intercept()
	goleak.VerifyTestMain(m)
}
