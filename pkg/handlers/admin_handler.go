package handlers

import (
	"net/http"
	"sync/atomic"

	config "storefront-api/configs"

	"github.com/gin-gonic/gin"
)

// isMaintenanceMode サーバーがメンテナンスモードかどうか。
// atomic.Boolでスレッドセーフに読み書きします。
var isMaintenanceMode atomic.Bool

// AdminHandler 管理者向け操作のハンドラです。
type AdminHandler struct {
	AdminUsername string
	AdminPassword string
}

// NewAdminHandler 新しいAdminHandlerを生成します。
func NewAdminHandler(cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}
}

// AdminCredentials 管理者認証のリクエストボディ
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authorize 認証情報を検証します。失敗時は応答済みにしてfalseを返します。
func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザー名とパスワードを指定してください。"})
		return false
	}
	if input.Username != h.AdminUsername || input.Password != h.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "認証情報が正しくありません。"})
		return false
	}
	return true
}

// StartMaintenance メンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	isMaintenanceMode.Store(true)
	c.JSON(http.StatusOK, gin.H{"message": "メンテナンスモードを開始しました。"})
}

// StopMaintenance メンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	isMaintenanceMode.Store(false)
	c.JSON(http.StatusOK, gin.H{"message": "メンテナンスモードを停止しました。"})
}

// GetHealthStatus 現在のサーバー状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isMaintenanceMode": isMaintenanceMode.Load()})
}

// HealthCheck 外部のヘルスチェッカー（ロードバランサー等）向けの応答です。
func HealthCheck(c *gin.Context) {
	if isMaintenanceMode.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "メンテナンス中です。"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
