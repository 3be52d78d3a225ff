package task

import (
	"fmt"
	"sync"

	"github.com/haierkeys/post-revisions-service/internal/app"
)

// TaskFactory builds a task from the app container; (nil, nil) means the task is disabled by config
// TaskFactory 由应用容器构建任务，返回 (nil, nil) 表示配置未启用
type TaskFactory func(appContainer *app.App) (Task, error)

type registration struct {
	name    string
	factory TaskFactory
}

var registry struct {
	sync.Mutex
	entries []registration
}

// Register adds a factory under name, normally from a task file's init.
// Registering the same name twice panics.
func Register(name string, factory TaskFactory) {
	registry.Lock()
	defer registry.Unlock()
	for _, e := range registry.entries {
		if e.name == name {
			panic(fmt.Sprintf("task %q registered twice", name))
		}
	}
	registry.entries = append(registry.entries, registration{name: name, factory: factory})
}

// registrations 按注册顺序返回副本
func registrations() []registration {
	registry.Lock()
	defer registry.Unlock()
	return append([]registration(nil), registry.entries...)
}
