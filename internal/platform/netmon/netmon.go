// Package netmon fournit le signal online/offline consommé par le
// coordinateur de synchronisation. Le signal est push: chaque changement
// d'état est délivré aux abonnés, jamais de polling côté consommateur.
package netmon

import (
	"context"
	"net"
	"sync"
	"time"
)

// Monitor expose l'état de connectivité courant et un flux des transitions.
type Monitor interface {
	Online() bool
	// Subscribe retourne un canal recevant le nouvel état à chaque
	// transition. Le canal est bufferisé; un abonné lent perd des
	// transitions intermédiaires, pas la dernière.
	Subscribe() <-chan bool
}

type base struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

func (b *base) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *base) Subscribe() <-chan bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan bool, 4)
	b.subs = append(b.subs, ch)
	return ch
}

// set publie uniquement les transitions (pas les états répétés).
func (b *base) set(online bool) {
	b.mu.Lock()
	if b.online == online {
		b.mu.Unlock()
		return
	}
	b.online = online
	subs := make([]chan bool, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- online:
		default:
			// Abonné saturé: on remplace la plus vieille valeur pour
			// garantir que le dernier état fini par arriver.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- online:
			default:
			}
		}
	}
}

// Manual est un moniteur piloté par l'extérieur: le device pousse son état
// de connectivité (équivalent du callback ConnectivityManager côté mobile).
type Manual struct {
	base
}

func NewManual(initial bool) *Manual {
	m := &Manual{}
	m.online = initial
	return m
}

// Set pousse le nouvel état; no-op si l'état est inchangé.
func (m *Manual) Set(online bool) {
	m.set(online)
}

// Probe détecte la connectivité en tentant périodiquement une connexion TCP
// vers une adresse de référence.
type Probe struct {
	base
	addr     string
	interval time.Duration
	timeout  time.Duration
}

func NewProbe(addr string, interval time.Duration) *Probe {
	return &Probe{
		addr:     addr,
		interval: interval,
		timeout:  3 * time.Second,
	}
}

// Start lance la boucle de sonde jusqu'à annulation du contexte.
// Une première sonde est faite immédiatement.
func (p *Probe) Start(ctx context.Context) {
	p.set(p.check())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.set(p.check())
		}
	}
}

func (p *Probe) check() bool {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
