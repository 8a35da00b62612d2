package transaction

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewManager(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)
	assert.NotNil(t, manager)
	assert.NotNil(t, manager.resources)
	assert.Equal(t, 0, manager.Len())
}

func TestAdd(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)

	manager.Add("task", func() error { return nil })
	assert.Equal(t, 1, manager.Len())
}

func TestReleaseOrder(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)

	var order []string
	for _, name := range []string{"names", "task", "results", "packages"} {
		name := name
		manager.Add(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	err := manager.Release()
	assert.NoError(t, err)
	assert.Equal(t, []string{"packages", "results", "task", "names"}, order)
	assert.Equal(t, 0, manager.Len())
}

func TestReleaseWithErrors(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)

	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	ran := 0

	manager.Add("op1", func() error { ran++; return err1 })
	manager.Add("op2", func() error { ran++; return err2 })
	manager.Add("op3", func() error { ran++; return nil })

	err := manager.Release()
	assert.Error(t, err)
	assert.ErrorIs(t, err, err1)
	assert.ErrorIs(t, err, err2)
	assert.Contains(t, err.Error(), "release op1")
	assert.Equal(t, 3, ran)
	assert.Equal(t, 0, manager.Len())
}

func TestReleaseEmpty(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)

	assert.NoError(t, manager.Release())
	assert.NoError(t, manager.Release())
}

func TestReleaseTwiceRunsOnce(t *testing.T) {
	manager := NewManager(nil)

	calls := 0
	manager.Add("task", func() error { calls++; return nil })

	assert.NoError(t, manager.Release())
	assert.NoError(t, manager.Release())
	assert.Equal(t, 1, calls)
}

func TestConcurrentAdd(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)

	done := make(chan bool)
	for g := 0; g < 2; g++ {
		go func(offset int) {
			for i := 0; i < 100; i++ {
				manager.Add(fmt.Sprintf("res-%d", i+offset), func() error { return nil })
			}
			done <- true
		}(g * 100)
	}

	<-done
	<-done

	assert.Equal(t, 200, manager.Len())
	assert.NoError(t, manager.Release())
	assert.Equal(t, 0, manager.Len())
}
