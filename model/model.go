package model

import (
	"gorm.io/gorm"
)

// RankRecord 玩家累计统计，按名字唯一
type RankRecord struct {
	gorm.Model
	Name          string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Points        int    `gorm:"not null;default:0;index"`
	Wins          int    `gorm:"not null;default:0"`
	Kills         int    `gorm:"not null;default:0"`
	KillsWallshot int    `gorm:"not null;default:0"`
	Deaths        int    `gorm:"not null;default:0"`
	Shots         int    `gorm:"not null;default:0"`
	TimePlayed    int64  `gorm:"not null;default:0"` // ticks
}
