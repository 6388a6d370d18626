package main

import (
	"errors"
	"testing"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error { return m.Called().Error(0) }
func (m *MockMigrator) Down() error { return m.Called().Error(0) }
func (m *MockMigrator) Steps(n int) error { return m.Called(n).Error(0) }
func (m *MockMigrator) Force(version int) error { return m.Called(version).Error(0) }
func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func TestRun_Up_NoChangeIsSuccess(t *testing.T) {
	m := new(MockMigrator)
	m.On("Up").Return(migrateV4.ErrNoChange)

	assert.NoError(t, run(m, []string{"up"}))
}

func TestRun_DownSteps(t *testing.T) {
	m := new(MockMigrator)
	m.On("Steps", -2).Return(nil)

	assert.NoError(t, run(m, []string{"down", "2"}))
	m.AssertExpectations(t)
}

func TestRun_DownAll(t *testing.T) {
	m := new(MockMigrator)
	m.On("Down").Return(nil)

	assert.NoError(t, run(m, []string{"down"}))
	m.AssertExpectations(t)
}

func TestRun_Force(t *testing.T) {
	m := new(MockMigrator)
	m.On("Force", 1).Return(nil)

	assert.NoError(t, run(m, []string{"force", "1"}))
	m.AssertExpectations(t)
}

func TestRun_VersionWithoutMigrations(t *testing.T) {
	m := new(MockMigrator)
	m.On("Version").Return(uint(0), false, migrateV4.ErrNilVersion)

	assert.NoError(t, run(m, []string{"version"}))
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"sideways"}},
		{"force without version", []string{"force"}},
		{"force with bad version", []string{"force", "x"}},
		{"down with zero steps", []string{"down", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(new(MockMigrator), tt.args))
		})
	}
}

func TestRun_UpFailure(t *testing.T) {
	m := new(MockMigrator)
	m.On("Up").Return(errors.New("dirty database version 1"))

	assert.Error(t, run(m, []string{"up"}))
}
