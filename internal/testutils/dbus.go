package testutils

import (
	"crypto/rand"
	"regexp"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

const TestDbusInterface = "com.test.InputSwitcher.Host"

func GenerateTestBusName() string {
	re := regexp.MustCompile(`[0-9]+`)
	return re.ReplaceAllString("com.test.InputSwitcher."+rand.Text(), "")
}

func GenerateTestObjectPath() string {
	return "/com/test/InputSwitcher/" + rand.Text()
}

type DbusInvocation struct {
	Name  string
	Args  string
	Token string
}

// TestDbusHost is a fake host exported on the session bus.
type TestDbusHost struct {
	conn       *dbus.Conn
	objectPath string
	mu         sync.Mutex
	calls      []DbusInvocation
	rejectWith string
}

func (s *TestDbusHost) Invoke(name, args, token string) (bool, string, *dbus.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, DbusInvocation{Name: name, Args: args, Token: token})
	if s.rejectWith != "" {
		return false, s.rejectWith, nil
	}
	return true, "", nil
}

func (s *TestDbusHost) Reject(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectWith = reason
}

func (s *TestDbusHost) Calls() []DbusInvocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DbusInvocation, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *TestDbusHost) EmitEvent(name, payload string) error {
	return s.conn.Emit(dbus.ObjectPath(s.objectPath), TestDbusInterface+".Event", name, payload)
}

// SetupTestDbusHost skips the test when no session bus is reachable.
func SetupTestDbusHost(t *testing.T) (*TestDbusHost, string, string) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus not available: %v", err)
	}

	testBusName := GenerateTestBusName()
	testObjectPath := GenerateTestObjectPath()
	Logf(t, "dbus, object: %s, bus: %s", testObjectPath, testBusName)
	reply, err := conn.RequestName(testBusName, dbus.NameFlagDoNotQueue)
	require.NoError(t, err, "failed to request bus name")
	require.Equal(t, dbus.RequestNameReplyPrimaryOwner, reply, "failed to become primary owner")

	service := &TestDbusHost{conn: conn, objectPath: testObjectPath}
	err = conn.Export(service, dbus.ObjectPath(testObjectPath), TestDbusInterface)
	require.NoError(t, err, "failed to export test service")

	t.Cleanup(func() {
		_, _ = conn.ReleaseName(testBusName)
		_ = conn.Close()
	})

	return service, testBusName, testObjectPath
}
