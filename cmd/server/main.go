// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"iam-core-go/internal/config"
	"iam-core-go/internal/handler"
	"iam-core-go/internal/middleware"
	"iam-core-go/internal/repository"
	"iam-core-go/internal/service"
	"iam-core-go/pkg/audit"
	"iam-core-go/pkg/cache"
	"iam-core-go/pkg/database"
	"iam-core-go/pkg/idgen"
	"iam-core-go/pkg/log"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库；Redis 仅在缓存后端选择 redis 时需要
	database.InitMySQL(cfg.Database.MySQL.DSN)

	var pathCache cache.PathCache
	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if cfg.Cache.Backend == "redis" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		pathCache = cache.NewRedisCache(database.RDB, cacheTTL)
		log.Info("权限缓存使用 Redis 后端")
	} else {
		pathCache = cache.NewMemoryCache(cacheTTL)
		log.Info("权限缓存使用进程内后端")
	}

	// 4. 初始化审计上报
	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Audit.Enabled {
		kafkaRecorder := audit.NewKafkaRecorder(cfg.Audit.Brokers, cfg.Audit.Topic)
		defer kafkaRecorder.Close()
		recorder = kafkaRecorder
	}

	// 5. 初始化 Repository
	tenantRepo := repository.NewTenantRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)
	roleRepo := repository.NewRoleRepository(database.DB)
	permRepo := repository.NewPermissionRepository(database.DB)
	deptRepo := repository.NewDeptRepository(database.DB)
	relationRepo := repository.NewRelationRepository(database.DB)

	// 6. 初始化 Service (依赖注入)
	idGen := idgen.NewGenerator()
	templateService := service.NewTemplateService(roleRepo, permRepo, relationRepo, pathCache, idGen, recorder)
	authzService := service.NewAuthzService(
		tenantRepo, userRepo, roleRepo, deptRepo, relationRepo,
		templateService, recorder, idGen,
		service.AuthzConfig{ClientAllowlist: cfg.Auth.ClientAllowlist},
	)
	tenantService := service.NewTenantService(tenantRepo, idGen, recorder)
	deptService := service.NewDeptService(deptRepo, idGen)
	roleService := service.NewRoleService(roleRepo, permRepo, relationRepo, pathCache, idGen)
	userService := service.NewUserService(userRepo)
	permissionService := service.NewPermissionService(permRepo, pathCache, idGen)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(authzService, cfg.Auth))
	{
		authz := apiV1.Group("/authz")
		{
			authzHandler := handler.NewAuthzHandler(authzService)
			authz.POST("/check", authzHandler.Check)
			authz.GET("/me", authzHandler.Me)
		}

		tenants := apiV1.Group("/tenants")
		{
			tenantHandler := handler.NewTenantHandler(tenantService)
			templateHandler := handler.NewTemplateHandler(templateService)
			tenants.POST("", tenantHandler.Create)
			tenants.GET("", tenantHandler.List)
			tenants.GET("/:id", tenantHandler.Get)
			tenants.PUT("/:id", tenantHandler.Update)
			tenants.DELETE("/:id", tenantHandler.Delete)
			tenants.POST("/:id/baseline", templateHandler.EnsureBaseline)
			tenants.POST("/:id/sync-permissions", templateHandler.SyncPermissions)
		}

		depts := apiV1.Group("/depts")
		{
			deptHandler := handler.NewDeptHandler(deptService)
			depts.POST("", deptHandler.Create)
			depts.GET("/tree", deptHandler.Tree)
			depts.GET("/:id/subtree", deptHandler.Subtree)
			depts.PUT("/:id/move", deptHandler.Move)
			depts.DELETE("/:id", deptHandler.Delete)
		}

		roles := apiV1.Group("/roles")
		{
			roleHandler := handler.NewRoleHandler(roleService)
			roles.POST("", roleHandler.Create)
			roles.GET("", roleHandler.List)
			roles.PUT("/:id", roleHandler.Update)
			roles.DELETE("/:id", roleHandler.Delete)
			roles.POST("/:id/permissions", roleHandler.AssignPermissions)
			roles.GET("/:id/permissions", roleHandler.ListPermissions)
			roles.DELETE("/:id/permissions/:permissionId", roleHandler.RevokePermission)
			roles.POST("/bind-user", roleHandler.AssignUserRole)
			roles.POST("/unbind-user", roleHandler.RevokeUserRole)
		}

		users := apiV1.Group("/users")
		{
			userHandler := handler.NewUserHandler(userService)
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.DELETE("/:id", userHandler.Delete)
		}

		// 权限定义是全租户共享的，只有超管可以改动
		permissions := apiV1.Group("/permissions")
		{
			permissionHandler := handler.NewPermissionHandler(permissionService)
			permissions.GET("/tree", permissionHandler.Tree)
			permissions.GET("/:id", permissionHandler.Get)

			admin := permissions.Group("")
			admin.Use(middleware.RequireSuperAdmin())
			{
				admin.POST("", permissionHandler.Create)
				admin.DELETE("/:id", permissionHandler.Delete)
			}
		}
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
