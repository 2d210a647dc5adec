//go:build js && wasm

package main

import (
	"fmt"
	"strconv"
	"syscall/js"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/tempo"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorInvalidParams
)

// estimateTempo runs the tempo pipeline on interleaved PCM samples.
// Arguments: audioArray, sampleRate, channels, [params object]
// Returns: {error: number, data: object | string}
func estimateTempo(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float32Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}
	if channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channels must be a number")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid channel count: %d", channels))
	}

	params := tempo.DefaultParams()
	if len(args) > 3 && args[3].Type() == js.TypeObject {
		readParams(args[3], &params)
	}
	if err := params.Validate(); err != nil {
		return makeErrorResponse(ErrorInvalidParams, err.Error())
	}

	length := audioDataJS.Length()
	samples := make([]float32, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = float32(val.Float())
	}

	res := tempo.Analyze(samples, channels, sampleRate, params)

	data := js.Global().Get("Object").New()
	data.Set("bpm", float64(res.BPM))
	data.Set("bpmText", strconv.FormatFloat(float64(res.BPM), 'g', 6, 32))
	data.Set("rawBpm", float64(res.RawBPM))
	data.Set("peaks", res.Peaks)
	data.Set("frames", res.Frames)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

// readParams overrides the fields present on obj.
func readParams(obj js.Value, p *tempo.Params) {
	if v := obj.Get("smoothing"); v.Type() == js.TypeNumber {
		p.Smoothing = float32(v.Float())
	}
	if v := obj.Get("threshold"); v.Type() == js.TypeNumber {
		p.Threshold = float32(v.Float())
	}
	if v := obj.Get("minGap"); v.Type() == js.TypeNumber {
		p.MinGap = v.Int()
	}
	if v := obj.Get("calibration"); v.Type() == js.TypeNumber {
		p.Calibration = float32(v.Float())
	}
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")

	js.Global().Set("estimateTempo", js.FuncOf(estimateTempo))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "window object is undefined")
	}

	if !console.IsUndefined() {
		console.Call("log", "AcousticBPM WASM module ready")
	}

	select {}
}
