package notification

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendOrder는 주문 제출 알림을 전송합니다
	SendOrder(info OrderInfo) error

	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error
}

// OrderInfo는 제출한 주문의 요약 정보를 정의합니다
type OrderInfo struct {
	Market       string // 마켓 심볼 (예: ETH)
	Kind         string // "진입", "청산", "스왑" 등
	Direction    string // "LONG" or "SHORT"
	SizeUSD      string // 포지션 크기 (USD)
	Collateral   string // 담보 수량과 토큰 심볼
	Leverage     string // 레버리지 (예: 5.0x)
	ExecutionFee string // 실행 수수료 (ETH)
}

// GetColorForDirection은 포지션 방향에 따른 색상을 반환합니다
func GetColorForDirection(direction string) int {
	switch direction {
	case "LONG":
		return ColorSuccess
	case "SHORT":
		return ColorError
	default:
		return ColorInfo
	}
}
