package core

import (
	"sort"
	"sync"
	"time"
)

var (
	Rooms = make(map[string]*Room)
	mu    sync.RWMutex

	defaultOptions RoomOptions
)

const (
	cleanupInterval = 30 * time.Second
	roomIdleTimeout = 60 // seconds
)

// SetDefaults 设置新房间使用的参数，在 main 中启动前调用
func SetDefaults(opts RoomOptions) {
	mu.Lock()
	defer mu.Unlock()
	defaultOptions = opts
}

func StartCleanupTask(stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			CleanupEmptyRooms(time.Now())
		case <-stop:
			return
		}
	}
}

// CleanupEmptyRooms stops rooms that have been empty for a while.
func CleanupEmptyRooms(now time.Time) {
	var idle []*Room

	mu.Lock()
	for id, room := range Rooms {
		room.Mutex.RLock()
		playerCount := len(room.Players)
		lastActive := room.LastActiveTime
		room.Mutex.RUnlock()

		if playerCount == 0 && (now.Unix()-lastActive) > roomIdleTimeout {
			idle = append(idle, room)
			delete(Rooms, id)
		}
	}
	mu.Unlock()

	for _, room := range idle {
		room.Stop()
	}
}

func GetRoom(roomID string) *Room {
	mu.RLock()
	defer mu.RUnlock()
	return Rooms[roomID]
}

func CreateRoom(roomID string) *Room {
	mu.Lock()
	defer mu.Unlock()
	if room, ok := Rooms[roomID]; ok {
		return room
	}
	room := NewRoom(roomID, defaultOptions)
	Rooms[roomID] = room
	go room.Run()
	return room
}

// ListRooms 按 id 排序的房间视图
func ListRooms() []RoomView {
	mu.RLock()
	rooms := make([]*Room, 0, len(Rooms))
	for _, room := range Rooms {
		rooms = append(rooms, room)
	}
	mu.RUnlock()

	views := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, room.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

// Shutdown stops every room. Each room saves its players and drains its tasks.
func Shutdown() {
	mu.Lock()
	rooms := make([]*Room, 0, len(Rooms))
	for id, room := range Rooms {
		rooms = append(rooms, room)
		delete(Rooms, id)
	}
	mu.Unlock()

	var wg sync.WaitGroup
	for _, room := range rooms {
		wg.Add(1)
		go func(room *Room) {
			defer wg.Done()
			room.Stop()
		}(room)
	}
	wg.Wait()
}
