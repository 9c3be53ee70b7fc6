// Package ocr — обёртка над движком распознавания текста (tesseract).
// Клиент движка создаётся один раз на сессию и переиспользуется каждый тик.
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// ErrEngineUnavailable — движок распознавания недоступен. Фатально для
// сессии: без извлечения текста конвейер бессмыслен.
var ErrEngineUnavailable = errors.New("recognition engine unavailable")

// Mode — режим распознавания: одна строка быстрее, общий режим точнее
// на многострочных областях.
type Mode int

const (
	ModeSingleLine Mode = iota
	ModeAuto
)

// RecognizedText — нормализованный текст (верхний регистр, одиночные пробелы)
// и момент захвата исходного кадра.
type RecognizedText struct {
	Text       string
	CapturedAt time.Time
}

// tesseractLang переводит код языка приложения в имя модели tesseract.
var tesseractLang = map[string]string{
	"en": "eng",
	"tr": "tur",
	"de": "deu",
	"es": "spa",
	"it": "ita",
	"fr": "fra",
}

// Recognizer держит единственный экземпляр клиента tesseract.
// Не потокобезопасен: принадлежит исключительно потоку конвейера.
type Recognizer struct {
	client *gosseract.Client
	buf    bytes.Buffer // переиспользуемый буфер PNG-кодирования
}

// New создаёт и настраивает клиент движка. Ошибка означает, что tesseract
// не установлен или модель языка отсутствует.
func New(lang string, mode Mode) (*Recognizer, error) {
	client := gosseract.NewClient()

	tl, ok := tesseractLang[strings.ToLower(lang)]
	if !ok {
		tl = "eng"
	}
	if err := client.SetLanguage(tl); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: set language %s: %v", ErrEngineUnavailable, tl, err)
	}

	psm := gosseract.PSM_SINGLE_LINE
	if mode == ModeAuto {
		psm = gosseract.PSM_AUTO
	}
	if err := client.SetPageSegMode(psm); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: set page seg mode: %v", ErrEngineUnavailable, err)
	}

	return &Recognizer{client: client}, nil
}

// Recognize извлекает текст из бинаризованного кадра. capturedAt — момент
// захвата кадра, он переносится в результат без изменений.
func (r *Recognizer) Recognize(frame *image.Gray, capturedAt time.Time) (RecognizedText, error) {
	r.buf.Reset()
	if err := png.Encode(&r.buf, frame); err != nil {
		return RecognizedText{}, fmt.Errorf("encode frame: %w", err)
	}
	if err := r.client.SetImageFromBytes(r.buf.Bytes()); err != nil {
		return RecognizedText{}, fmt.Errorf("%w: set image: %v", ErrEngineUnavailable, err)
	}
	text, err := r.client.Text()
	if err != nil {
		return RecognizedText{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return RecognizedText{Text: Normalize(text), CapturedAt: capturedAt}, nil
}

// Close освобождает ресурсы движка.
func (r *Recognizer) Close() error {
	return r.client.Close()
}

// Normalize приводит сырой вывод движка к форме, с которой работают
// детекторы: верхний регистр, схлопнутые пробельные последовательности.
func Normalize(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}
