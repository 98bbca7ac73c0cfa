// pkg/resource/health_test.go
package resource

import (
	"context"
	"strings"
	"testing"
)

func TestResourceHealthCheck_Name(t *testing.T) {
	check := NewResourceHealthCheck(NewResourceManager(testLimits(10), nil))
	if check.Name() != "resources" {
		t.Errorf("Expected name 'resources', got %s", check.Name())
	}
}

func TestResourceHealthCheck_Check(t *testing.T) {
	tests := []struct {
		name        string
		maxMemoryMB int64
		workers     int
		maxWorkers  int
		wantErr     string
	}{
		{"Healthy", 1000, 2, 10, ""},
		{"MemoryOverLimit", -1, 0, 10, "memory usage"},
		{"WorkersNearCap", 1000, 9, 10, "worker count"},
		{"WorkersAtThreshold", 1000, 8, 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := NewResourceManager(testLimits(tt.maxWorkers), nil)
			rm.maxMemoryMB = tt.maxMemoryMB
			rm.CheckMemoryUsage()
			rm.workerCount.Store(int64(tt.workers))

			err := NewResourceHealthCheck(rm).Check(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected healthy, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
