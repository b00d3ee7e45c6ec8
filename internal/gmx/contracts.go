// internal/gmx/contracts.go
package gmx

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/assist-by/hermes/internal/domain"
)

// Contracts는 한 체인의 GMX v2 컨트랙트 주소 모음입니다.
// 전역 상태가 아니라 값으로 주입해서 사용합니다.
type Contracts struct {
	Chain            domain.Chain
	Datastore        common.Address
	EventEmitter     common.Address
	ExchangeRouter   common.Address
	DepositVault     common.Address
	WithdrawalVault  common.Address
	OrderVault       common.Address
	SyntheticsReader common.Address
	SyntheticsRouter common.Address

	WrappedNative common.Address // WETH / WAVAX
	HubToken      common.Address // 스왑 경로의 기준 자산 (USDC)
}

var arbitrumContracts = Contracts{
	Chain:            domain.Arbitrum,
	Datastore:        common.HexToAddress("0xFD70de6b91282D8017aA4E741e9Ae325CAb992d8"),
	EventEmitter:     common.HexToAddress("0xC8ee91A54287DB53897056e12D9819156D3822Fb"),
	ExchangeRouter:   common.HexToAddress("0x900173A66dbD345006C51fA35fA3aB760FcD843b"),
	DepositVault:     common.HexToAddress("0xF89e77e8Dc11691C9e8757e84aaFbCD8A67d7A55"),
	WithdrawalVault:  common.HexToAddress("0x0628D46b5D145f183AdB6Ef1f2c97eD1C4701C55"),
	OrderVault:       common.HexToAddress("0x31eF83a530Fde1B38EE9A18093A333D8Bbbc40D5"),
	SyntheticsReader: common.HexToAddress("0x5Ca84c34a381434786738735265b9f3FD814b824"),
	SyntheticsRouter: common.HexToAddress("0x7452c558d45f8afC8c83dAe62C3f8A5BE19c71f6"),
	WrappedNative:    common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	HubToken:         common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
}

var avalancheContracts = Contracts{
	Chain:            domain.Avalanche,
	Datastore:        common.HexToAddress("0x2F0b22339414ADeD7D5F06f9D604c7fF5b2fe3f6"),
	EventEmitter:     common.HexToAddress("0xDb17B211c34240B014ab6d61d4A31FA0C0e20c26"),
	ExchangeRouter:   common.HexToAddress("0x2b76df209E1343da5698AF0f8757f6170162e78b"),
	DepositVault:     common.HexToAddress("0x90c670825d0C62ede1c5ee9571d6d9a17A722DFF"),
	WithdrawalVault:  common.HexToAddress("0xf5F30B10141E1F63FC11eD772931A8294a591996"),
	OrderVault:       common.HexToAddress("0xD3D60D22d415aD43b7e64b510D86A30f19B1B12C"),
	SyntheticsReader: common.HexToAddress("0xBAD04dDcc5CC284A86493aFA75D2BEb970C72216"),
	SyntheticsRouter: common.HexToAddress("0x820F5FfC5b525cD4d88Cd91aCf2c28F16530Cc68"),
	WrappedNative:    common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"),
	HubToken:         common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"),
}

// 레거시 WBTC 주소는 합성 BTC 마켓의 인덱스 주소로 치환해야 합니다
var (
	LegacyWBTC   = common.HexToAddress("0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f")
	SyntheticBTC = common.HexToAddress("0x47904963fc8b2340414262125aF798B9655E58Cd")
)

// ContractsFor는 체인에 해당하는 컨트랙트 주소 모음을 반환합니다
func ContractsFor(chain domain.Chain) (Contracts, error) {
	switch chain {
	case domain.Arbitrum:
		return arbitrumContracts, nil
	case domain.Avalanche:
		return avalancheContracts, nil
	default:
		return Contracts{}, fmt.Errorf("지원하지 않는 체인입니다: %s", chain)
	}
}

// AliasLegacyWrapped는 레거시 WBTC 주소를 합성 BTC 주소로 치환합니다.
// 프로토콜 고유의 예외 처리이며 다른 토큰에는 적용되지 않습니다.
func AliasLegacyWrapped(addr common.Address) common.Address {
	if addr == LegacyWBTC {
		return SyntheticBTC
	}
	return addr
}
