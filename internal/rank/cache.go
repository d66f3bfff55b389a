package rank

// NotPlaying 表示当前没有在计时
const NotPlaying int64 = -1

// Cache 玩家统计的内存累加器，会话结束或回合结束时写入存储
type Cache struct {
	Points        int
	Wins          int
	Kills         int
	KillsWallshot int
	Deaths        int
	Shots         int
	TimePlayed    int64 // ticks

	TimeStartedPlaying int64 // tick, NotPlaying when stopped
}

func NewCache() Cache {
	return Cache{TimeStartedPlaying: NotPlaying}
}

// StartPlaying 开始计时，重复调用无效果
func (c *Cache) StartPlaying(tick int64) {
	if c.TimeStartedPlaying == NotPlaying {
		if tick < 0 {
			tick = 0
		}
		c.TimeStartedPlaying = tick
	}
}

// StopPlaying 停止计时并累加游戏时间，重复调用无效果
func (c *Cache) StopPlaying(tick int64) {
	if c.TimeStartedPlaying > NotPlaying {
		if tick > c.TimeStartedPlaying {
			c.TimePlayed += tick - c.TimeStartedPlaying
		}
		c.TimeStartedPlaying = NotPlaying
	}
}

// IsPlaying reports whether play time is currently accumulating.
func (c *Cache) IsPlaying() bool {
	return c.TimeStartedPlaying != NotPlaying
}

// Take returns a copy of the counters accumulated up to tick and zeroes them.
// A running play clock keeps running from tick.
func (c *Cache) Take(tick int64) Cache {
	playing := c.IsPlaying()
	c.StopPlaying(tick)

	snapshot := *c
	*c = NewCache()
	if playing {
		c.StartPlaying(tick)
	}
	return snapshot
}

// Empty reports whether there is nothing worth writing.
func (c Cache) Empty() bool {
	return c.Points == 0 && c.Wins == 0 && c.Kills == 0 && c.KillsWallshot == 0 &&
		c.Deaths == 0 && c.Shots == 0 && c.TimePlayed == 0
}
