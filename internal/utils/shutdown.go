package utils

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type shutdownTask struct {
	name string
	fn   func(context.Context) error
}

type ShutdownManager struct {
	cancelFunc    context.CancelFunc
	shutdownTasks []shutdownTask
	timeout       time.Duration
	mu            sync.Mutex
	exit          func(int)
}

func NewShutdownManager(ctx context.Context) (context.Context, *ShutdownManager) {
	ctx, cancel := context.WithCancel(ctx)
	manager := &ShutdownManager{
		cancelFunc: cancel,
		timeout:    15 * time.Second,
		exit:       os.Exit,
	}
	return ctx, manager
}

// Register adds a task. Tasks run in reverse registration order so the HTTP
// server stops before the stores it depends on are closed.
func (sm *ShutdownManager) Register(name string, task func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownTasks = append(sm.shutdownTasks, shutdownTask{name: name, fn: task})
}

func (sm *ShutdownManager) StartListening() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("[SHUTDOWN] Received signal: %v", sig)
		sm.Shutdown()
		sm.exit(0)
	}()
}

// Shutdown cancels the root context and runs every registered task.
func (sm *ShutdownManager) Shutdown() {
	sm.cancelFunc()

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i := len(sm.shutdownTasks) - 1; i >= 0; i-- {
		task := sm.shutdownTasks[i]
		log.Printf("[SHUTDOWN] Closing %s...", task.name)
		if err := task.fn(ctx); err != nil {
			log.Printf("[SHUTDOWN] Error closing %s: %v", task.name, err)
		}
	}
	sm.shutdownTasks = nil

	log.Println("[SHUTDOWN] Graceful shutdown complete")
}
