package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/pkg/domain"
)

func newPlain(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return New(out, errOut), out, errOut
}

func TestNotifyRoutesBySeverity(t *testing.T) {
	p, out, errOut := newPlain(t)

	p.Notify(domain.NotifySuccess, "物品登记成功！已生成编码：W-A3-2405011430-20307")
	p.Notify(domain.NotifyInfo, "category 文具 (c1) removed while 1 items still reference it")
	p.Notify(domain.NotifyError, "认领失败：该物品已被 张三 认领。")

	assert.Equal(t, "✓ 物品登记成功！已生成编码：W-A3-2405011430-20307\n→ category 文具 (c1) removed while 1 items still reference it\n", out.String())
	assert.Equal(t, "✗ 认领失败：该物品已被 张三 认领。\n", errOut.String())
}

func TestPrefixNotDoubled(t *testing.T) {
	p, out, errOut := newPlain(t)
	p.Success("✓ done\n")
	p.Warning("low disk")
	assert.Equal(t, "✓ done\n", out.String())
	assert.Equal(t, "! low disk\n", errOut.String())
}

func TestErrorfReturnsMessage(t *testing.T) {
	p, _, errOut := newPlain(t)
	err := p.Errorf("unknown item %s", "x1")
	require.Error(t, err)
	require.Equal(t, "unknown item x1", err.Error())
	require.Equal(t, "✗ unknown item x1\n", errOut.String())
}

func TestNewDefaultsWriters(t *testing.T) {
	p := New(nil, nil)
	require.NotNil(t, p.out)
	require.NotNil(t, p.errOut)
}
