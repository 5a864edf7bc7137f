// Package gs1 GS1-128条码子集解析
// 仓库扫码枪输出的格式为：
//
//	01<14位GTIN>3100<6位重量kg×100>10<批号>
//
// 净重应用标识为3200时重量单位为磅。多个条码可按行粘贴，逐行独立解析。
package gs1

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// WeightUnit 重量单位
type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitPounds    WeightUnit = "lb"
)

// Code 一个已解析的条码
type Code struct {
	GTIN   string
	Weight float64
	Unit   WeightUnit
	Lot    string
	Raw    string
}

// BatchResult 批量解析结果
// 失败的行不会中断兄弟行，按"N codes not recognized"聚合上报
type BatchResult struct {
	Codes        []Code
	Unrecognized []string
}

// UnrecognizedCount 未识别行数
func (r BatchResult) UnrecognizedCount() int { return len(r.Unrecognized) }

var codePattern = regexp.MustCompile(`^01(\d{14})(3100|3200)(\d{6})10(.+)$`)

// Parse 解析单个条码，格式不符时返回错误值（不会panic）
func Parse(raw string) (Code, error) {
	s := strings.TrimSpace(raw)
	m := codePattern.FindStringSubmatch(s)
	if m == nil {
		return Code{}, fmt.Errorf("gs1: code not recognized: %q", raw)
	}

	hundredths, err := strconv.Atoi(m[3])
	if err != nil {
		return Code{}, fmt.Errorf("gs1: invalid weight field: %q", raw)
	}

	unit := UnitKilograms
	if m[2] == "3200" {
		unit = UnitPounds
	}

	return Code{
		GTIN:   m[1],
		Weight: float64(hundredths) / 100,
		Unit:   unit,
		Lot:    m[4],
		Raw:    s,
	}, nil
}

// ParseBatch 解析多行粘贴的条码
func ParseBatch(payload string) BatchResult {
	var result BatchResult
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		code, err := Parse(line)
		if err != nil {
			result.Unrecognized = append(result.Unrecognized, line)
			continue
		}
		result.Codes = append(result.Codes, code)
	}
	return result
}
