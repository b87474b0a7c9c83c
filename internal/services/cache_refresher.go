package services

import (
	"context"
	"log"
	"time"
)

type CacheRefresher struct {
	admin    *AdminService
	interval time.Duration
}

func NewCacheRefresher(admin *AdminService, interval time.Duration) *CacheRefresher {
	return &CacheRefresher{admin: admin, interval: interval}
}

func (cr *CacheRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(cr.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				cr.refreshDashboardStats(ctx)
			case <-ctx.Done():
				log.Println("[CACHE] Stopping cache refresher...")
				ticker.Stop()
				return
			}
		}
	}()
}

func (cr *CacheRefresher) refreshDashboardStats(ctx context.Context) {
	if _, err := cr.admin.RefreshDashboardStats(ctx); err != nil {
		log.Printf("[CACHE] Failed to refresh dashboard stats: %v", err)
		return
	}
	log.Println("[CACHE] Successfully refreshed dashboard stats.")
}
