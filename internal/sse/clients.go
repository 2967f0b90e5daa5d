// Package sse provides Server-Sent Events client management for pushing
// view-refresh notifications to connected browsers.
package sse

import (
	"sync"

	"github.com/google/uuid"
)

type Client struct {
	ID  uuid.UUID
	Msg chan string

	// Path is the view the client is watching; invalidating that path
	// triggers a refresh message.
	Path string
}

func NewClient(path string) *Client {
	return &Client{
		ID:   uuid.New(),
		Msg:  make(chan string),
		Path: path,
	}
}

type Clients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewClients() *Clients {
	return &Clients{
		clients: make(map[*Client]bool),
	}
}

func (s *Clients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *Clients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
	close(client.Msg)
}

func (s *Clients) Broadcast(path, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Path == path {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}
