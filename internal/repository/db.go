package repository

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"qrlink-go/internal/model"
	"qrlink-go/pkg/logging"
)

var DB *gorm.DB

func InitDB(logger *zap.Logger, atomicLogLevel zap.AtomicLevel) {
	dsn := viper.GetString("db.dsn")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLogLevel.Level())), // 注入 logger 并转换级别
		TranslateError: true,                                                                          // 唯一键冲突翻译为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		logging.Logger.Fatal("Failed to connect database", zap.Error(err))
	}

	err = db.AutoMigrate(&model.QRCode{}, &model.ScanEvent{}, &model.DailyStat{})
	if err != nil {
		logging.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	DB = db
}
