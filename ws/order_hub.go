package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/resp"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// client ที่ไม่อ่านนานเกินนี้จะถูกตัดออก ไม่ให้ถ่วงห้องอื่น
const writeWait = 10 * time.Second

// OrderHub คือศูนย์กลาง namespace /orders: ห้องของโต๊ะ และห้องของพนักงานร้าน
type OrderHub struct {
	clients    map[string]map[*websocket.Conn]bool // room -> set of clients
	broadcast  chan roomMessage
	register   chan Subscription
	unregister chan Subscription
	done       chan struct{}
	writeWait  time.Duration
	mu         sync.Mutex
}

// Subscription = 1 connection ในห้องเดียว
type Subscription struct {
	Conn *websocket.Conn
	Room string
}

type roomMessage struct {
	Room  string
	Event events.Event
}

func TableRoom(tenantID, tableID uint) string {
	return fmt.Sprintf("tenant:%d:table:%d", tenantID, tableID)
}

func StaffRoom(tenantID uint) string {
	return fmt.Sprintf("tenant:%d:staff", tenantID)
}

func NewOrderHub() *OrderHub {
	return &OrderHub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan roomMessage, 64),
		register:   make(chan Subscription),
		unregister: make(chan Subscription),
		done:       make(chan struct{}),
		writeWait:  writeWait,
	}
}

// Run คอยฟัง register/unregister/broadcast จนกว่า ctx จะถูกยกเลิก
func (h *OrderHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for room, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
				delete(h.clients, room)
			}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.Room] == nil {
				h.clients[sub.Room] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.Room][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.Room][sub.Conn]; ok {
				delete(h.clients[sub.Room], sub.Conn)
				sub.Conn.Close()
			}
			if len(h.clients[sub.Room]) == 0 {
				delete(h.clients, sub.Room)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[msg.Room] {
				_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
				if err := conn.WriteJSON(msg.Event); err != nil {
					log.Printf("ws write error: %v", err)
					conn.Close()
					delete(h.clients[msg.Room], conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish makes the hub an events.Sink. Cart events stay in the table room;
// everything order related also reaches the staff room.
func (h *OrderHub) Publish(ctx context.Context, ev events.Event) error {
	var rooms []string
	if ev.TableID != 0 {
		rooms = append(rooms, TableRoom(ev.TenantID, ev.TableID))
	}
	switch ev.Type {
	case events.CartUpdated, events.TimerUpdate:
	default:
		rooms = append(rooms, StaffRoom(ev.TenantID))
	}
	for _, room := range rooms {
		select {
		case h.broadcast <- roomMessage{Room: room, Event: ev}:
		case <-h.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Count returns the number of live connections in room.
func (h *OrderHub) Count(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[room])
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket: GET /ws/orders?tenantId=&tableId=&role=
// ตัวตนมาจาก middleware (cookie ของโต๊ะ หรือ token พนักงาน) ไม่ใช่จาก query
func (h *OrderHub) HandleWebSocket(c *gin.Context) {
	room, err := roomFor(c)
	if err != nil {
		resp.Error(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	sub := Subscription{Conn: conn, Room: room}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return
	}
	go h.listen(sub)
}

func roomFor(c *gin.Context) (string, error) {
	wantTenant, _ := strconv.ParseUint(c.Query("tenantId"), 10, 64)
	wantTable, _ := strconv.ParseUint(c.Query("tableId"), 10, 64)

	if v, ok := c.Get(utils.CtxStaff); ok {
		claims := v.(*utils.StaffClaims)
		if wantTenant != 0 && uint(wantTenant) != claims.TenantID {
			return "", apperr.ErrForbidden
		}
		if c.Query("role") != RoleCustomer || wantTable == 0 {
			return StaffRoom(claims.TenantID), nil
		}
		// staff may watch a single table
		return TableRoom(claims.TenantID, uint(wantTable)), nil
	}

	s := utils.CurrentSession(c)
	if s == nil {
		return "", apperr.ErrNoSession
	}
	if c.Query("role") == RoleStaff {
		return "", apperr.ErrForbidden
	}
	if (wantTenant != 0 && uint(wantTenant) != s.TenantID) || (wantTable != 0 && uint(wantTable) != s.TableID) {
		return "", apperr.ErrForbidden
	}
	return tableRoomOf(s), nil
}

func tableRoomOf(s *entity.TableSession) string { return TableRoom(s.TenantID, s.TableID) }

// listen อ่านจน connection ปิด; ข้อความจาก client ไม่ถูกใช้ (push อย่างเดียว)
func (h *OrderHub) listen(sub Subscription) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()
	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
	}
}
