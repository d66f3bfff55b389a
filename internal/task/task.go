package task

import (
	"log"

	"github.com/sourcegraph/conc/panics"
)

// Handle 后台任务句柄
type Handle interface {
	// IsComplete never blocks.
	IsComplete() bool
	// Await blocks until the work has finished.
	Await()
}

// Task runs one function on its own goroutine.
type Task struct {
	name string
	done chan struct{}
}

// Go 启动后台任务。fn 必须自己处理并记录错误，panic 会被捕获并记录
func Go(name string, fn func()) *Task {
	t := &Task{
		name: name,
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)

		var pc panics.Catcher
		pc.Try(fn)
		if r := pc.Recovered(); r != nil {
			log.Printf("task %s panicked: %v", t.name, r.Value)
		}
	}()
	return t
}

func (t *Task) IsComplete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task) Await() {
	<-t.done
}
