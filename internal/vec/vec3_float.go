package vec

import "math"

// Add складывает два вектора.
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор.
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр.
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора.
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized возвращает единичный вектор того же направления.
func (v Vec3Float) Normalized() Vec3Float {
	l := v.Length()
	if l == 0 {
		return Vec3Float{}
	}
	return Vec3Float{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// ToVec3 округляет к ближайшей целой координате блока.
func (v Vec3Float) ToVec3() Vec3 {
	return Vec3{X: int(math.Round(v.X)), Y: int(math.Round(v.Y)), Z: int(math.Round(v.Z))}
}

// FromVec3 создаёт Vec3Float из целочисленной координаты.
func FromVec3(v Vec3) Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Facing возвращает горизонтальное направление вектора как единичный Vec2Float.
// Вертикальная составляющая игнорируется — сущности смотрят только по X/Y.
func (v Vec3Float) Facing() Vec2Float {
	h := Vec2Float{X: v.X, Y: v.Y}
	return h.Normalized()
}

// ClampMagnitude возвращает вектор того же направления не длиннее max.
func (v Vec3Float) ClampMagnitude(max float64) Vec3Float {
	l := v.Length()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}
