package midiassign

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// CatalogSupervisor reloads the instrument catalog file whenever it changes
type CatalogSupervisor struct {
	Service  *Service
	File     string
	Interval time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup

	modTime time.Time
}

func (s *Service) NewCatalogSupervisor(file string, interval time.Duration) *CatalogSupervisor {
	return &CatalogSupervisor{
		Service:  s,
		File:     file,
		Interval: interval,
	}
}

// Check imports the catalog when its modification time moved.
// It reports whether a reload happened.
func (p *CatalogSupervisor) Check() (bool, error) {
	info, err := os.Stat(p.File)
	if err != nil {
		return false, err
	}
	if info.ModTime().Equal(p.modTime) {
		return false, nil
	}

	catalog, err := LoadCatalogFileName(p.File)
	if err != nil {
		return false, err
	}
	if err := p.Service.Store.PutInstruments(catalog); err != nil {
		return false, err
	}
	p.modTime = info.ModTime()

	slog.Info("Catalog reloaded",
		slog.String("file", p.File),
		slog.Int("instruments", len(catalog)))
	return true, nil
}

// Start the CatalogSupervisor
func (p *CatalogSupervisor) Start() {
	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(p.Interval)

	p.WG.Add(1)
	go func() {
		defer p.WG.Done()
		defer p.Ticker.Stop()

		for {
			select {
			case <-p.Ticker.C:
				if _, err := p.Check(); err != nil {
					slog.Error("Catalog reload failed", slog.Any("Error", err))
				}
			case <-p.StopChan:
				return
			}
		}
	}()
}

// Stop the CatalogSupervisor
func (p *CatalogSupervisor) Stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.WG.Wait()
		p.StopChan = nil
	}
}

// Restart the CatalogSupervisor
func (p *CatalogSupervisor) Restart() {
	p.Stop()
	p.Start()
}
