package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"zcatch-server/internal/rank"
	"zcatch-server/model"
	"zcatch-server/pkg/config"
)

// DSN 构建: username:password@tcp(host:port)/database?charset=utf8mb4&parseTime=True&loc=Local
func DSN(cfg config.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// InitMySQL opens the ranking database. The caller degrades to no ranking on error.
func InitMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}

	// 单连接：所有访问都经过 rank.Gateway 串行化
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	// 自动迁移表结构
	if err := db.AutoMigrate(&model.RankRecord{}); err != nil {
		return nil, fmt.Errorf("mysql migrate: %w", err)
	}
	return db, nil
}

// RankStore is the gorm backed rank.Store.
type RankStore struct {
	DB *gorm.DB
}

func NewRankStore(db *gorm.DB) *RankStore {
	return &RankStore{DB: db}
}

// Read 根据名字查询
func (s *RankStore) Read(ctx context.Context, name string) (rank.Cache, error) {
	var rec model.RankRecord
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rank.Cache{}, rank.ErrNotFound
	}
	if err != nil {
		return rank.Cache{}, err
	}
	return toCache(rec), nil
}

// Write 累加写入 (upsert)
func (s *RankStore) Write(ctx context.Context, name string, stats rank.Cache) error {
	rec := model.RankRecord{
		Name:          name,
		Points:        stats.Points,
		Wins:          stats.Wins,
		Kills:         stats.Kills,
		KillsWallshot: stats.KillsWallshot,
		Deaths:        stats.Deaths,
		Shots:         stats.Shots,
		TimePlayed:    stats.TimePlayed,
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":         gorm.Expr("points + ?", stats.Points),
			"wins":           gorm.Expr("wins + ?", stats.Wins),
			"kills":          gorm.Expr("kills + ?", stats.Kills),
			"kills_wallshot": gorm.Expr("kills_wallshot + ?", stats.KillsWallshot),
			"deaths":         gorm.Expr("deaths + ?", stats.Deaths),
			"shots":          gorm.Expr("shots + ?", stats.Shots),
			"time_played":    gorm.Expr("time_played + ?", stats.TimePlayed),
		}),
	}).Create(&rec).Error
}

// Top 排行榜，按积分倒序
func (s *RankStore) Top(ctx context.Context, limit int) ([]rank.Entry, error) {
	var records []model.RankRecord
	err := s.DB.WithContext(ctx).
		Order("points desc").
		Order("wins desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	entries := make([]rank.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rank.Entry{Name: rec.Name, Stats: toCache(rec)})
	}
	return entries, nil
}

func toCache(rec model.RankRecord) rank.Cache {
	c := rank.NewCache()
	c.Points = rec.Points
	c.Wins = rec.Wins
	c.Kills = rec.Kills
	c.KillsWallshot = rec.KillsWallshot
	c.Deaths = rec.Deaths
	c.Shots = rec.Shots
	c.TimePlayed = rec.TimePlayed
	return c
}
