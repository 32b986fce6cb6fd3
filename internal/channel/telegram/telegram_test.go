package telegram

import "testing"

func TestAdapterName(t *testing.T) {
	adapter := New("test")
	if adapter.Name() != "telegram" {
		t.Errorf("Expected telegram, got %s", adapter.Name())
	}
}

func TestIsEnabled(t *testing.T) {
	if !New("test").IsEnabled() {
		t.Error("Expected enabled with token")
	}
	if New("").IsEnabled() {
		t.Error("Expected disabled without token")
	}
}

func TestStopWithoutStart(t *testing.T) {
	adapter := New("test")
	if err := adapter.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, ok := <-adapter.Incoming(); ok {
		t.Error("Expected Incoming to be closed after Stop")
	}
}
