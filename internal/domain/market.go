package domain

import "github.com/ethereum/go-ethereum/common"

// Market은 GMX v2 마켓 정보를 표현합니다
type Market struct {
	Address       common.Address // 마켓(GM 토큰) 주소
	IndexToken    common.Address // 인덱스 토큰 주소 (순수 스왑 마켓은 zero address)
	LongToken     common.Address // 롱 담보 토큰 주소
	ShortToken    common.Address // 숏 담보 토큰 주소
	Symbol        string         // 마켓 심볼 (단일 토큰 풀은 "2" 접미사)
	IndexDecimals int32          // 인덱스 토큰 소수점 자릿수
	LongDecimals  int32          // 롱 토큰 소수점 자릿수
	ShortDecimals int32          // 숏 토큰 소수점 자릿수
}

// IsSingleToken은 롱/숏 토큰이 같은 단일 토큰 풀인지 확인합니다
func (m Market) IsSingleToken() bool {
	return m.LongToken == m.ShortToken
}

// IsSwapOnly는 인덱스 토큰이 없는 순수 스왑 마켓인지 확인합니다
func (m Market) IsSwapOnly() bool {
	return m.IndexToken == ZeroAddress
}

// DecimalFactor는 마켓 기준 소수점 자릿수를 반환합니다.
// 합성 마켓이면 인덱스 토큰, 아니면 롱 토큰 기준입니다.
func (m Market) DecimalFactor(long, short bool) int32 {
	switch {
	case long:
		return m.LongDecimals
	case short:
		return m.ShortDecimals
	default:
		return m.IndexDecimals
	}
}
