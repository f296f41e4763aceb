package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/device"
)

const ns = 1e-9

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
	field5 [2]int
}

func newTestedCompiler() *compiler.Compiler {
	c := compiler.MakeBuilder().Build()
	Expect(c.SetTimeBase(5 * ns)).To(Succeed())
	Expect(c.AssignPod(device.Microwave, 0)).To(Succeed())
	Expect(c.AssignPod(device.Detection, 1)).To(Succeed())

	Expect(c.DeclarePulse(1)).To(Succeed())
	Expect(c.SetPulseFunction(1, device.Microwave)).To(Succeed())
	Expect(c.SetPulsePosition(1, 100*ns)).To(Succeed())
	Expect(c.SetPulseLength(1, 50*ns)).To(Succeed())

	Expect(c.StartTestRun()).To(Succeed())
	Expect(c.EndTestRun()).To(Succeed())

	return c
}

func get(m *Monitor, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	m.router().ServeHTTP(rec, req)

	return rec
}

func decode(rec *httptest.ResponseRecorder, v interface{}) {
	Expect(rec.Code).To(Equal(http.StatusOK))
	Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
	)

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should answer 404 without a compiler", func() {
		rec := get(m, "/api/status")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	Context("with a compiled pulser", func() {
		BeforeEach(func() {
			m.RegisterCompiler(newTestedCompiler())
		})

		It("should report the status", func() {
			rsp := statusRsp{}
			decode(get(m, "/api/status"), &rsp)

			Expect(rsp.Mode).To(Equal("ready"))
			Expect(rsp.NumPulses).To(Equal(1))
			Expect(rsp.NumStages).To(Equal(1))
			Expect(rsp.TimeBase).NotTo(BeEmpty())
		})

		It("should list used functions only", func() {
			var rsp []functionRsp
			decode(get(m, "/api/functions"), &rsp)

			Expect(rsp).To(HaveLen(1))
			Expect(rsp[0].Name).To(Equal("MICROWAVE"))
			Expect(rsp[0].Pods).To(Equal([]device.Pod{0}))
			Expect(rsp[0].Channels).To(Equal([]device.Channel{0}))
			Expect(rsp[0].Pulses).To(Equal(1))
		})

		It("should list pulses in seconds", func() {
			var rsp []pulseRsp
			decode(get(m, "/api/pulses"), &rsp)

			Expect(rsp).To(HaveLen(1))
			Expect(rsp[0].Num).To(Equal(1))
			Expect(rsp[0].Function).To(Equal("MICROWAVE"))
			Expect(rsp[0].Position).To(BeNumerically("~", 100*ns, 1e-12))
			Expect(rsp[0].Length).To(BeNumerically("~", 50*ns, 1e-12))
			Expect(rsp[0].Active).To(BeTrue())
			Expect(rsp[0].PhaseCycle).To(BeNil())
		})

		It("should list bound channels", func() {
			var rsp []channelRsp
			decode(get(m, "/api/channels"), &rsp)

			Expect(rsp).To(Equal([]channelRsp{
				{Channel: 0, Function: "MICROWAVE"},
			}))
		})

		It("should show the plan", func() {
			var rsp compiler.Plan
			decode(get(m, "/api/plan"), &rsp)

			Expect(rsp.MaxSeqLen).To(BeNumerically(">", 0))
			Expect(rsp.MemorySize).To(Equal(rsp.MaxSeqLen + 1))
		})

		It("should list advisories", func() {
			var rsp []advisoryRsp
			decode(get(m, "/api/advisories"), &rsp)

			Expect(rsp).To(ContainElement(HaveField("Code",
				compiler.AdvUnusedFunction.Error())))
		})

		It("should answer 404 for unknown functions", func() {
			rec := get(m, "/api/function/LASER")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should reject malformed field requests", func() {
			rec := get(m, "/api/field/"+url.PathEscape("{not json"))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer 404 for missing fields", func() {
			req := url.PathEscape(`{"function":"MW","field_name":"Nope"}`)
			rec := get(m, "/api/field/"+req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("run", 3)
		bar.IncrementFinished(1)
		bar.IncrementFailed(1)

		var rsp []progressRsp
		decode(get(m, "/api/progress"), &rsp)

		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("run"))
		Expect(rsp[0].Finished).To(Equal(uint64(2)))
		Expect(rsp[0].Failed).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)
		decode(get(m, "/api/progress"), &rsp)
		Expect(rsp).To(BeEmpty())
	})

	It("should fall back to a random port for reserved ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should walk int fields", func() {
		s := &sampleStruct{
			field1: 1,
		}

		elem, err := walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{
			field2: "abc",
		}

		elem, err := walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.String))
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk recursively", func() {
		s := &sampleStruct{
			field3: &sampleStruct{
				field1: 1,
			},
		}

		elem, err := walkFields(s, "field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slices and arrays", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{
				field5: [2]int{0, 7},
			}, {}},
		}

		elem, err := walkFields(s, "field4.0.field5.1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(7)))
	})

	It("should refuse missing fields and bad indices", func() {
		s := &sampleStruct{field4: []sampleStruct{{}}}

		_, err := walkFields(s, "field9")
		Expect(err).To(HaveOccurred())

		_, err = walkFields(s, "field4.3")
		Expect(err).To(HaveOccurred())

		_, err = walkFields(s, "field3.field1")
		Expect(err).To(HaveOccurred())

		_, err = walkFields(s, "field1.x")
		Expect(err).To(HaveOccurred())
	})
})
