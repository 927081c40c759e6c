package qrcode

// Level 二维码纠错等级
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

// ParseLevel 解析纠错等级，空值取 M
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "":
		return LevelM, true
	case "L", "M", "Q", "H":
		return Level(s), true
	default:
		return "", false
	}
}

// Matrix 二维码点阵（不含静区），true 为前景模块
type Matrix struct {
	Modules     [][]bool
	ModuleCount int
	Level       Level // 实际使用的纠错等级
}
