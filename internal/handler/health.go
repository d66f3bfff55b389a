package handler

import (
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"zcatch-server/internal/rank"
)

// RankingService 排名存储的健康检查服务名
const RankingService = "zcatch.Ranking"

// NewHealthServer reports the process as serving and the ranking service according to
// whether the statistics store is connected.
func NewHealthServer(gw *rank.Gateway) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if gw.IsEnabled() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(RankingService, status)
	return hs
}

func StartGRPC(port int, hs *health.Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	go func() {
		log.Printf("Game Service gRPC listening on :%d", port)
		if err := s.Serve(lis); err != nil {
			log.Printf("gRPC server stopped: %v", err)
		}
	}()
	return s, nil
}
