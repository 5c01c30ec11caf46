package mqtt

import (
	"strings"
	"testing"
)

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "graylogic/addons/system/status",
		},
		{
			name: "SuggestionsChanged",
			builder: func() string {
				return Topics{}.SuggestionsChanged()
			},
			expected: "graylogic/addons/event/suggestions",
		},
		{
			name: "FinderStatus",
			builder: func() string {
				return Topics{}.FinderStatus("mdns")
			},
			expected: "graylogic/addons/event/finder/mdns",
		},
		{
			name: "AllEvents",
			builder: func() string {
				return Topics{}.AllEvents()
			},
			expected: "graylogic/addons/event/#",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "graylogic/addons/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestBuildOnlinePayload(t *testing.T) {
	payload := buildOnlinePayload("addons-test")

	if !strings.Contains(payload, `"status":"online"`) {
		t.Errorf("online payload missing status field: %s", payload)
	}
	if !strings.Contains(payload, `"client_id":"addons-test"`) {
		t.Errorf("online payload missing client_id field: %s", payload)
	}
}

func TestBuildOfflinePayload(t *testing.T) {
	payload := buildOfflinePayload("addons-test")

	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("offline payload missing status field: %s", payload)
	}
	if !strings.Contains(payload, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing reason field: %s", payload)
	}
}
