package entity

import "image"

// ColorMasks маски здоровой, хлоротичной и некротической ткани.
// Значения пикселей 0 или 255, размеры совпадают с анализируемым кадром.
type ColorMasks struct {
	Green  *image.Gray
	Yellow *image.Gray
	Brown  *image.Gray
}

// ColorRatios доли цветовых классов в процентах от переднего плана.
type ColorRatios struct {
	Green  float64 `json:"green"`
	Yellow float64 `json:"yellow"`
	Brown  float64 `json:"brown"`
}

// CountMask считает ненулевые пиксели маски.
func CountMask(m *image.Gray) int {
	if m == nil {
		return 0
	}
	b := m.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Pix[(y-b.Min.Y)*m.Stride : (y-b.Min.Y)*m.Stride+b.Dx()]
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// Percent возвращает part/total*100; нулевой знаменатель считается равным 1.
func Percent(part, total int) float64 {
	if total <= 0 {
		total = 1
	}
	return float64(part) / float64(total) * 100
}
