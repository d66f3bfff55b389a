package task

// Pool 待完成的后台任务队列。只在房间循环的 goroutine 中使用，不加锁
type Pool struct {
	queue []Handle
}

func NewPool() *Pool {
	return &Pool{}
}

// Submit 入队
func (p *Pool) Submit(h Handle) {
	if h == nil {
		return
	}
	p.queue = append(p.queue, h)
}

func (p *Pool) Len() int {
	return len(p.queue)
}

// PollCompleted makes one non-blocking pass over the handles queued when it was called.
// Finished handles are dropped, pending ones go to the back. Returns how many finished.
func (p *Pool) PollCompleted() int {
	n := len(p.queue)
	finished := 0
	for i := 0; i < n; i++ {
		h := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]

		if h.IsComplete() {
			finished++
			continue
		}
		p.queue = append(p.queue, h)
	}
	return finished
}

// DrainAll 关服时调用，按入队顺序阻塞等待所有任务
func (p *Pool) DrainAll() {
	for len(p.queue) > 0 {
		h := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		h.Await()
	}
	p.queue = nil
}
