package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "obras_http_requests_total",
		Help: "Total de requisicoes HTTP por rota e resultado",
	}, []string{"rota", "status"})

	transicoesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "obras_transicoes_total",
		Help: "Transicoes de estado aplicadas por maquina e estado alvo",
	}, []string{"maquina", "alvo"})

	eventosProcessadosTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "obras_eventos_processados_total",
		Help: "Total de eventos de dominio processados pelo worker",
	}, []string{"tipo"})

	eventoProcessamentoDuracao = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "obras_evento_processamento_segundos",
		Help:    "Tempo para processar um evento no worker",
		Buckets: prometheus.DefBuckets,
	})

	conexoesTempoReal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obras_conexoes_tempo_real",
		Help: "Conexoes websocket abertas",
	})
)

func ObserveRequest(rota, status string) {
	httpRequestsTotal.WithLabelValues(rota, status).Inc()
}

func IncTransicao(maquina, alvo string) {
	transicoesTotal.WithLabelValues(maquina, alvo).Inc()
}

func IncEventoProcessado(tipo string) {
	eventosProcessadosTotal.WithLabelValues(tipo).Inc()
}

func ObserveProcessingDuration(seconds float64) {
	eventoProcessamentoDuracao.Observe(seconds)
}

func SetConexoesTempoReal(n int) {
	conexoesTempoReal.Set(float64(n))
}
