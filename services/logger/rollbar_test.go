package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

func TestRollbarLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	l.Enable(false)

	usr := user.User{ID: "42", Username: "jdoe"}
	l.Error("something broke", errors.New("boom"), usr)

	out := buf.String()
	assert.Contains(t, out, "ERROR: something broke")
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "jdoe")
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := &RollbarLogger{std: log.New(new(bytes.Buffer), "", 0)}
	extra := map[string]interface{}{"k": "v"}

	rbArgs, printed := l.prepare("msg", []interface{}{user.User{ID: "1"}, extra, user.User{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", extra}, rbArgs)
	assert.Equal(t, []interface{}{extra}, printed)
}
