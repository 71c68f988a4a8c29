package web

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"cardquest/internal/cards"
)

// Card IDs are lowercase words joined by underscores (slash, sword_fire_2).
var validCardID = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// handleCardArt serves card face art: static/cards/{id}.png if present,
// otherwise a generated blocky image keyed on the card's affinity or effect.
func (s *Server) handleCardArt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/cards/art/")
	if path.Ext(name) != ".png" {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSuffix(name, ".png")
	if !validCardID.MatchString(id) {
		http.NotFound(w, r)
		return
	}

	// Prefer a static file so artists can drop in PNGs.
	staticDir := s.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	baseDir := filepath.Join(staticDir, "cards")
	staticPath := filepath.Clean(filepath.Join(baseDir, id+".png"))
	rel, err := filepath.Rel(baseDir, staticPath)
	if err != nil || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}
	if b, err := os.ReadFile(staticPath); err == nil { //nolint:gosec // path checked against baseDir above
		w.Header().Set("Content-Type", contentTypePNG)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(b)
		return
	}

	card := cards.Resolve(s.Catalog, id)
	var buf bytes.Buffer
	if err := png.Encode(&buf, generateCardArt(card)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(buf.Bytes())
}

const contentTypePNG = "image/png"

// Pixel-art palette. 96×128 canvas in 8×8 blocks.
var (
	pixelBlack  = color.RGBA{0x18, 0x14, 0x28, 255} // dark purple-black
	pixelStone  = color.RGBA{0x55, 0x55, 0x66, 255}
	pixelSteel  = color.RGBA{0xb8, 0xc0, 0xcc, 255}
	pixelFire   = color.RGBA{0xd8, 0x5a, 0x28, 255}
	pixelEmber  = color.RGBA{0xf2, 0xb1, 0x3c, 255}
	pixelWater  = color.RGBA{0x2d, 0x5a, 0x9c, 255}
	pixelFoam   = color.RGBA{0x8c, 0xc8, 0xe8, 255}
	pixelBolt   = color.RGBA{0xf4, 0xe0, 0x4d, 255}
	pixelLight  = color.RGBA{0xf6, 0xf0, 0xd2, 255}
	pixelDark   = color.RGBA{0x45, 0x2c, 0x5c, 255} // deep purple
	pixelGreen  = color.RGBA{0x2d, 0x8a, 0x3d, 255}
	pixelBright = color.RGBA{0x8c, 0xd4, 0x6a, 255}
	pixelWarm   = color.RGBA{0xc4, 0x6c, 0x32, 255} // warm brown/orange
)

const blockPx = 8
const artW, artH = 96, 128
const blocksW, blocksH = artW / blockPx, artH / blockPx

// fillBlock fills one 8×8 block at block coords (bx, by) with clr.
func fillBlock(img *image.RGBA, bx, by int, clr color.RGBA) {
	for dy := 0; dy < blockPx; dy++ {
		for dx := 0; dx < blockPx; dx++ {
			x := bx*blockPx + dx
			y := by*blockPx + dy
			if x < artW && y < artH {
				img.SetRGBA(x, y, clr)
			}
		}
	}
}

// fillBlocks fills the block rectangle [x0,x1)×[y0,y1), clipped to the canvas.
func fillBlocks(img *image.RGBA, x0, y0, x1, y1 int, clr color.RGBA) {
	for by := max(y0, 0); by < min(y1, blocksH); by++ {
		for bx := max(x0, 0); bx < min(x1, blocksW); bx++ {
			fillBlock(img, bx, by, clr)
		}
	}
}

// affinityColors returns the background and accent for an attack.
func affinityColors(a cards.Affinity) (bg, accent color.RGBA) {
	switch a {
	case cards.AffinityFire:
		return pixelFire, pixelEmber
	case cards.AffinityWater:
		return pixelWater, pixelFoam
	case cards.AffinityThunder:
		return pixelDark, pixelBolt
	case cards.AffinityLight:
		return pixelEmber, pixelLight
	case cards.AffinityDark:
		return pixelBlack, pixelDark
	default:
		return pixelStone, pixelSteel
	}
}

// generateCardArt draws a card face: a framed field in the card's colors
// with a motif for its effect. Attacks get a blade whose length grows with
// base damage.
func generateCardArt(c cards.Card) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, artW, artH))
	fillBlocks(img, 0, 0, blocksW, blocksH, pixelBlack)

	switch {
	case c.IsAttack():
		bg, accent := affinityColors(c.Affinity)
		fillBlocks(img, 1, 1, blocksW-1, blocksH-1, bg)
		// blade, hilt and grip down the middle
		blade := min(max(c.BaseDamage/2, 3), blocksH-6)
		top := blocksH - 5 - blade
		fillBlocks(img, blocksW/2-1, top, blocksW/2+1, blocksH-5, pixelSteel)
		fillBlocks(img, blocksW/2-3, blocksH-5, blocksW/2+3, blocksH-4, accent)
		fillBlocks(img, blocksW/2-1, blocksH-4, blocksW/2+1, blocksH-2, pixelWarm)
		fillBlock(img, blocksW/2-1, top, accent)
	case c.IsAction():
		fillBlocks(img, 1, 1, blocksW-1, blocksH-1, pixelStone)
		drawEffect(img, c.EffectType)
	default:
		// unknown card: a question mark
		fillBlocks(img, 1, 1, blocksW-1, blocksH-1, pixelDark)
		fillBlocks(img, 3, 3, 9, 4, pixelLight)
		fillBlocks(img, 8, 4, 9, 7, pixelLight)
		fillBlocks(img, 5, 7, 9, 8, pixelLight)
		fillBlocks(img, 5, 8, 6, 10, pixelLight)
		fillBlocks(img, 5, 11, 6, 12, pixelLight)
	}

	// focus cost pips along the bottom edge
	for i := 0; i < c.FocusCost && i < blocksW-2; i++ {
		fillBlock(img, 1+i, blocksH-1, pixelBolt)
	}
	return img
}

func drawEffect(img *image.RGBA, effect cards.EffectType) {
	cx, cy := blocksW/2, blocksH/2
	switch effect {
	case cards.EffectHeal:
		fillBlocks(img, cx-1, cy-4, cx+1, cy+4, pixelBright)
		fillBlocks(img, cx-4, cy-1, cx+4, cy+1, pixelBright)
	case cards.EffectTankHeal:
		fillBlocks(img, cx-4, cy-5, cx+4, cy+3, pixelSteel)
		fillBlocks(img, cx-3, cy+3, cx+3, cy+5, pixelSteel)
		fillBlocks(img, cx-1, cy-3, cx+1, cy+3, pixelGreen)
		fillBlocks(img, cx-3, cy-1, cx+3, cy+1, pixelGreen)
	case cards.EffectDefense:
		fillBlocks(img, cx-4, cy-5, cx+4, cy+3, pixelSteel)
		fillBlocks(img, cx-3, cy+3, cx+3, cy+4, pixelSteel)
		fillBlocks(img, cx-1, cy+4, cx+1, cy+5, pixelSteel)
		fillBlocks(img, cx-1, cy-4, cx+1, cy+3, pixelWarm)
	case cards.EffectReflect:
		for i := -4; i < 4; i++ {
			fillBlock(img, cx+i, cy+i, pixelLight)
			fillBlock(img, cx+i+1, cy+i, pixelFoam)
		}
	case cards.EffectFocusGain, cards.EffectFocusGainVulnerable:
		r := 4
		for by := cy - r; by <= cy+r; by++ {
			for bx := cx - r; bx <= cx+r; bx++ {
				dx, dy := bx-cx, by-cy
				if d := dx*dx + dy*dy; d <= r*r && d >= (r-1)*(r-1) {
					fillBlock(img, bx, by, pixelBolt)
				}
			}
		}
		fillBlocks(img, cx-1, cy-1, cx+1, cy+1, pixelBolt)
		if effect == cards.EffectFocusGainVulnerable {
			fillBlocks(img, cx+2, cy-5, cx+5, cy-4, pixelFire)
		}
	case cards.EffectDamageBoost:
		// upward arrow
		fillBlocks(img, cx-1, cy-2, cx+1, cy+5, pixelFire)
		for i := 0; i < 4; i++ {
			fillBlocks(img, cx-1-i, cy-5+i, cx+1+i, cy-4+i, pixelEmber)
		}
	default:
		fillBlocks(img, cx-2, cy-2, cx+2, cy+2, pixelSteel)
	}
}
